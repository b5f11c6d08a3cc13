package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"opsdesk-backend/internal/queue"
)

type fakeStore struct {
	saved     map[string][]byte
	deleted   []string
	openErr   error
	saveErr   error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string][]byte)}
}

func (f *fakeStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	if f.saveErr != nil {
		return "", 0, "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := "documents/" + fileName
	f.saved[key] = data
	return key, int64(len(data)), "application/octet-stream", nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	data, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	delete(f.saved, key)
	return nil
}

type fakeQueue struct {
	msgs []queue.Message
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, msg queue.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestUploadShortTextStoredVerbatim(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewService(NewMemoryRepo(), store, q, "local")

	text := "Final payment due Jan 15."
	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "note.txt",
		DeclaredMIME: "text/plain",
		Data:         strings.NewReader(text),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.ExtractedText != text {
		t.Fatalf("expected verbatim text, got %q", doc.ExtractedText)
	}
	if doc.ExtractionState != "extracted" {
		t.Fatalf("expected state extracted, got %q", doc.ExtractionState)
	}
	if len(q.msgs) != 1 || q.msgs[0].DocumentID != doc.ID {
		t.Fatalf("expected one extraction job for %s, got %+v", doc.ID, q.msgs)
	}
}

func TestUploadCorruptPDFStillCreatesRecord(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewService(NewMemoryRepo(), store, q, "local")

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "broken.pdf",
		DeclaredMIME: "application/pdf",
		Data:         strings.NewReader("%PDF-1.4 garbage"),
	})
	if err != nil {
		t.Fatalf("upload should not fail on extraction error: %v", err)
	}
	if doc.ExtractionState != "failed" {
		t.Fatalf("expected state failed, got %q", doc.ExtractionState)
	}
	if !strings.HasPrefix(doc.ExtractedText, "[extraction failed: ") {
		t.Fatalf("expected failure marker, got %q", doc.ExtractedText)
	}
	if len(q.msgs) != 0 {
		t.Fatalf("marker-only text must not schedule issue extraction, got %+v", q.msgs)
	}
	if len(store.saved) != 1 {
		t.Fatalf("raw blob should still be stored")
	}
}

func TestUploadEnqueueFailureDoesNotFailUpload(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{err: errors.New("buffer full")}
	svc := NewService(NewMemoryRepo(), store, q, "local")

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "memo.txt",
		DeclaredMIME: "text/plain",
		Data:         strings.NewReader("quarterly ops review notes, action items attached"),
	})
	if err != nil {
		t.Fatalf("upload should survive a full queue: %v", err)
	}
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	store := newFakeStore()
	repo := NewMemoryRepo()
	svc := NewService(repo, store, &fakeQueue{}, "local")

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "old.txt",
		DeclaredMIME: "text/plain",
		Data:         strings.NewReader("stale content scheduled for removal"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected blob delete, got %v", store.deleted)
	}
}

func TestDeleteRecordRemovedEvenWhenBlobDeleteFails(t *testing.T) {
	store := newFakeStore()
	repo := NewMemoryRepo()
	svc := NewService(repo, store, &fakeQueue{}, "local")

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "stuck.txt",
		DeclaredMIME: "text/plain",
		Data:         strings.NewReader("object store is having a bad day"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	store.deleteErr = errors.New("s3 unavailable")
	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("delete must succeed despite blob failure: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record must be gone, got %v", err)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	svc := NewService(NewMemoryRepo(), newFakeStore(), &fakeQueue{}, "local")
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReingestRefreshesTextAndReschedules(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewService(NewMemoryRepo(), store, q, "local")

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "runbook.txt",
		DeclaredMIME: "text/plain",
		Data:         strings.NewReader("restart the ingest worker when the queue stalls"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := svc.Reingest(context.Background(), doc.ID, "req-1")
	if err != nil {
		t.Fatalf("reingest: %v", err)
	}
	if got.ExtractedText != doc.ExtractedText {
		t.Fatalf("expected same text on unchanged blob, got %q", got.ExtractedText)
	}
	if len(q.msgs) != 2 {
		t.Fatalf("expected a second extraction job, got %d", len(q.msgs))
	}
}

func TestUploadRejectsMissingFileName(t *testing.T) {
	svc := NewService(NewMemoryRepo(), newFakeStore(), &fakeQueue{}, "local")
	_, err := svc.Upload(context.Background(), UploadInput{
		FileName: "   ",
		Data:     strings.NewReader("x"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
