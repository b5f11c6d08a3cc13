package chat

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"opsdesk-backend/internal/documents"
)

type staticDocs struct {
	docs []documents.Document
}

func (s *staticDocs) List(ctx context.Context) ([]documents.Document, error) {
	return s.docs, nil
}

func docAt(id, name, text string, age time.Duration) documents.Document {
	return documents.Document{
		ID:              id,
		FileName:        name,
		DocType:         "document",
		ExtractedText:   text,
		ExtractionState: "extracted",
		CreatedAt:       time.Now().UTC().Add(-age),
	}
}

func TestContextSkipsUnusableDocuments(t *testing.T) {
	src := &staticDocs{docs: []documents.Document{
		docAt("1", "good.txt", "maintenance schedule for pumps", time.Hour),
		docAt("2", "broken.pdf", "[extraction failed: bad xref]", 2*time.Hour),
		docAt("3", "blank.txt", "", 3*time.Hour),
	}}
	b := NewContextBuilder(src)

	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(got, "maintenance schedule for pumps") {
		t.Fatalf("usable document missing from context: %q", got)
	}
	if strings.Contains(got, "extraction failed") || strings.Contains(got, "broken.pdf") {
		t.Fatalf("marker-only document leaked into context: %q", got)
	}
	if strings.Contains(got, "blank.txt") {
		t.Fatalf("empty document leaked into context: %q", got)
	}
}

func TestContextFallbackWhenNothingUsable(t *testing.T) {
	b := NewContextBuilder(&staticDocs{docs: []documents.Document{
		docAt("1", "broken.pdf", "[extraction failed: no pages]", time.Hour),
	}})

	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got != fallbackContext {
		t.Fatalf("expected fallback context, got %q", got)
	}
}

func TestContextCapsPerDocument(t *testing.T) {
	long := strings.Repeat("a", maxContextRunesPerDoc+1000)
	b := NewContextBuilder(&staticDocs{docs: []documents.Document{
		docAt("1", "huge.txt", long, time.Hour),
	}})

	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	runs := utf8.RuneCountInString(strings.TrimPrefix(got, "Document: huge.txt (document)\n"))
	if runs != maxContextRunesPerDoc {
		t.Fatalf("expected %d runes of content, got %d", maxContextRunesPerDoc, runs)
	}
}

func TestContextDeterministicAndChronological(t *testing.T) {
	// List order is newest first; context order must be oldest first and
	// identical across rebuilds.
	src := &staticDocs{docs: []documents.Document{
		docAt("2", "new.txt", "newer content", time.Hour),
		docAt("1", "old.txt", "older content", 2*time.Hour),
	}}
	b := NewContextBuilder(src)

	first, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if first != second {
		t.Fatal("context assembly must be deterministic")
	}
	if strings.Index(first, "older content") > strings.Index(first, "newer content") {
		t.Fatalf("expected oldest document first: %q", first)
	}
}

func TestContextStripsLowConfidenceMarkerButKeepsText(t *testing.T) {
	b := NewContextBuilder(&staticDocs{docs: []documents.Document{
		docAt("1", "scan.pdf", "[low-confidence extraction; possible scanned image] invoice 42", time.Hour),
	}})

	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(got, "invoice 42") {
		t.Fatalf("usable tail should survive: %q", got)
	}
	if strings.Contains(got, "low-confidence") {
		t.Fatalf("marker prefix should be stripped: %q", got)
	}
}
