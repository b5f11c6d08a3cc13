package documents

import "time"

// Document is an ingested source file plus whatever text was pulled out of it.
// ExtractedText may be a bracketed marker when extraction failed or looked
// like a scanned image; ExtractionState records which case applies.
type Document struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	DocType         string    `json:"docType"`
	StorageProvider string    `json:"storageProvider"`
	StorageKey      string    `json:"storageKey"`
	ExtractedText   string    `json:"extractedText"`
	ExtractionState string    `json:"extractionState"`
	CreatedAt       time.Time `json:"createdAt"`
}
