package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsdesk-backend/internal/extract"
	"opsdesk-backend/internal/queue"
	"opsdesk-backend/internal/shared/metrics"
	"opsdesk-backend/internal/shared/storage/object"
	"opsdesk-backend/internal/shared/telemetry"
)

// Caps the bytes pulled into memory per upload for text extraction.
const maxUploadBytes = 25 << 20

// UploadInput describes one incoming document.
type UploadInput struct {
	FileName     string
	DeclaredMIME string
	DocType      string
	RequestID    string
	Data         io.Reader
}

// Service implements document ingestion and lifecycle operations.
type Service struct {
	repo          Repo
	store         object.ObjectStore
	extractionQ   queue.Client
	storeProvider string
}

// NewService wires the document service.
func NewService(repo Repo, store object.ObjectStore, extractionQ queue.Client, storeProvider string) *Service {
	return &Service{
		repo:          repo,
		store:         store,
		extractionQ:   extractionQ,
		storeProvider: storeProvider,
	}
}

// Upload stores the raw file, extracts whatever text it can, persists the
// document record, and fires an issue-extraction job when the text is usable.
// Extraction problems never fail the upload; they are recorded in the stored
// text and state.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(in.Data, maxUploadBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return Document{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, maxUploadBytes)
	}

	storageKey, _, sniffedMIME, err := s.store.Save(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	declared := in.DeclaredMIME
	if strings.TrimSpace(declared) == "" {
		declared = sniffedMIME
	}
	res := extract.Extract(ctx, data, declared, fileName)

	doc := Document{
		ID:              uuid.NewString(),
		FileName:        fileName,
		DocType:         normalizeDocType(in.DocType),
		StorageProvider: s.storeProvider,
		StorageKey:      storageKey,
		ExtractedText:   res.Text,
		ExtractionState: res.State,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		// The blob is already persisted; release it so a failed insert does
		// not leak storage.
		if delErr := s.store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("documents.orphan_blob", map[string]any{
				"storage_key": storageKey,
				"error":       delErr.Error(),
			})
		}
		return Document{}, err
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id":      doc.ID,
		"file_name":        doc.FileName,
		"extraction_state": doc.ExtractionState,
		"request_id":       in.RequestID,
	})

	s.scheduleIssueExtraction(ctx, doc, in.RequestID)
	return doc, nil
}

// List returns all documents, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes the record and then releases the stored blob. Blob removal
// is best effort: the record is gone either way.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("documents.blob_delete_failed", map[string]any{
				"document_id": doc.ID,
				"storage_key": doc.StorageKey,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

// Reingest re-runs text extraction against the stored blob and fires issue
// extraction again when the refreshed text is usable.
func (s *Service) Reingest(ctx context.Context, id, requestID string) (Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}

	rc, err := s.store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, fmt.Errorf("open stored blob: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxUploadBytes))
	if err != nil {
		return Document{}, fmt.Errorf("read stored blob: %w", err)
	}

	res := extract.Extract(ctx, data, "", doc.FileName)
	if err := s.repo.UpdateExtraction(ctx, doc.ID, res.Text, res.State); err != nil {
		return Document{}, err
	}
	doc.ExtractedText = res.Text
	doc.ExtractionState = res.State

	telemetry.Info("documents.reingested", map[string]any{
		"document_id":      doc.ID,
		"extraction_state": doc.ExtractionState,
		"request_id":       requestID,
	})

	s.scheduleIssueExtraction(ctx, doc, requestID)
	return doc, nil
}

func (s *Service) scheduleIssueExtraction(ctx context.Context, doc Document, requestID string) {
	if s.extractionQ == nil {
		return
	}
	if extract.UsableText(doc.ExtractedText) == "" {
		return
	}
	if err := s.extractionQ.Enqueue(ctx, queue.NewMessage(doc.ID, requestID)); err != nil {
		// Fire and forget: the upload already succeeded, so a full queue
		// only costs the derived issues.
		metrics.IncExtractionDropped()
		telemetry.Error("documents.extraction_enqueue_failed", map[string]any{
			"document_id": doc.ID,
			"request_id":  requestID,
			"error":       err.Error(),
		})
	}
}

func normalizeDocType(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "document"
	}
	return strings.ToLower(trimmed)
}
