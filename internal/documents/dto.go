package documents

import "time"

// uploadResponse is returned from POST /documents.
type uploadResponse struct {
	ID       string `json:"id"`
	FileName string `json:"filename"`
	DocType  string `json:"type"`
	Status   string `json:"status"`
}

// listItem is one row of GET /documents.
type listItem struct {
	ID        string    `json:"id"`
	FileName  string    `json:"filename"`
	DocType   string    `json:"type"`
	Status    string    `json:"status"`
	AddedDate time.Time `json:"added_date"`
}

func statusLabel(state string) string {
	switch state {
	case "extracted":
		return "Extracted"
	case "low_confidence":
		return "LowConfidence"
	case "failed":
		return "Failed"
	default:
		return "Empty"
	}
}

func toUploadResponse(doc Document) uploadResponse {
	return uploadResponse{
		ID:       doc.ID,
		FileName: doc.FileName,
		DocType:  doc.DocType,
		Status:   statusLabel(doc.ExtractionState),
	}
}

func toListItems(docs []Document) []listItem {
	out := make([]listItem, 0, len(docs))
	for _, doc := range docs {
		out = append(out, listItem{
			ID:        doc.ID,
			FileName:  doc.FileName,
			DocType:   doc.DocType,
			Status:    statusLabel(doc.ExtractionState),
			AddedDate: doc.CreatedAt,
		})
	}
	return out
}
