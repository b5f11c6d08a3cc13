package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsdesk-backend/internal/llm"
	"opsdesk-backend/internal/shared/metrics"
	"opsdesk-backend/internal/shared/telemetry"
)

// Document text beyond this many runes is not sent to the model.
const maxExtractorInputRunes = 15000

const extractorPromptHeader = `You are an operations analyst. Read the document below and list every actionable issue it raises.
Respond with ONLY a JSON array. Each element must be an object with fields:
  "title" (short string), "description" (string), "severity" ("High", "Medium" or "Low"), "department" (string, optional).
Return [] if the document raises no issues.

Document:
`

// Extractor derives issues from document text via the configured model.
// Failures are logged and swallowed: issue extraction never surfaces an
// error to the ingestion path.
type Extractor struct {
	client llm.Client
	repo   Repo
}

// NewExtractor wires the extractor.
func NewExtractor(client llm.Client, repo Repo) *Extractor {
	return &Extractor{client: client, repo: repo}
}

type extractedItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Department  string `json:"department"`
}

// Run performs one extraction pass over a document's text. The returned count
// is how many issues were persisted; errors are internal-only and already
// logged when the count is zero because of a failure.
func (e *Extractor) Run(ctx context.Context, documentID, fileName, text string) int {
	metrics.IncExtractionJob()

	trimmed := truncateRunes(strings.TrimSpace(text), maxExtractorInputRunes)
	if trimmed == "" {
		return 0
	}

	reply, err := e.client.Complete(ctx, extractorPromptHeader+trimmed)
	if err != nil {
		telemetry.Error("issues.extractor_model_failed", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return 0
	}

	items, err := parseExtractedItems(reply)
	if err != nil {
		telemetry.Error("issues.extractor_parse_failed", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return 0
	}

	created := 0
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			// Skip the malformed item, keep the rest.
			continue
		}
		issue := Issue{
			ID:          uuid.NewString(),
			Title:       title,
			Description: strings.TrimSpace(item.Description),
			Priority:    PriorityFromSeverity(item.Severity),
			Status:      StatusOpen,
			Department:  defaultString(item.Department, "General"),
			Assignee:    "Unassigned",
			CreatedAt:   time.Now().UTC(),
		}
		if err := e.repo.Create(ctx, issue); err != nil {
			telemetry.Error("issues.extractor_persist_failed", map[string]any{
				"document_id": documentID,
				"title":       issue.Title,
				"error":       err.Error(),
			})
			continue
		}
		created++
	}

	metrics.AddExtractionIssues(created)
	telemetry.Info("issues.extracted", map[string]any{
		"document_id": documentID,
		"file_name":   fileName,
		"issue_count": created,
	})
	return created
}

func parseExtractedItems(reply string) ([]extractedItem, error) {
	cleaned := stripCodeFences(reply)
	var items []extractedItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("model reply is not a JSON array: %w", err)
	}
	return items, nil
}

// stripCodeFences removes a surrounding markdown fence, which models emit
// despite being told not to.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func defaultString(raw, def string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return def
}
