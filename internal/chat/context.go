package chat

import (
	"context"
	"fmt"
	"strings"

	"opsdesk-backend/internal/documents"
	"opsdesk-backend/internal/extract"
)

// Each document contributes at most this many runes of context.
const maxContextRunesPerDoc = 5000

// fallbackContext stands in when no ingested document has usable text, so
// the model still gets a well-formed grounding block.
const fallbackContext = "No documents have been ingested yet. Answer from general operational knowledge and say that no documents are available."

// DocumentSource lists ingested documents for context assembly.
type DocumentSource interface {
	List(ctx context.Context) ([]documents.Document, error)
}

// ContextBuilder assembles the grounding context block sent with every chat
// and voice turn.
type ContextBuilder struct {
	docs DocumentSource
}

// NewContextBuilder wires the builder.
func NewContextBuilder(docs DocumentSource) *ContextBuilder {
	return &ContextBuilder{docs: docs}
}

// Build renders the context block. Assembly is deterministic for a given
// document set: documents appear oldest first, each capped and separated by
// a divider. Documents with no usable text are skipped entirely.
func (b *ContextBuilder) Build(ctx context.Context) (string, error) {
	docs, err := b.docs.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list documents for context: %w", err)
	}

	var sections []string
	// List returns newest first; walk backwards for chronological order.
	for i := len(docs) - 1; i >= 0; i-- {
		doc := docs[i]
		text := extract.UsableText(doc.ExtractedText)
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf(
			"Document: %s (%s)\n%s",
			doc.FileName, doc.DocType, truncateRunes(text, maxContextRunesPerDoc),
		))
	}

	if len(sections) == 0 {
		return fallbackContext, nil
	}
	return strings.Join(sections, "\n---\n"), nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
