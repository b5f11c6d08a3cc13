package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo is a Postgres-backed document repository.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo creates a Postgres repo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

// Create inserts a document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
		INSERT INTO documents (id, file_name, doc_type, storage_provider, storage_key, extracted_text, extraction_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.FileName, doc.DocType, doc.StorageProvider,
		doc.StorageKey, doc.ExtractedText, doc.ExtractionState, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID fetches one document.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	const query = `
		SELECT id, file_name, doc_type, storage_provider, storage_key, extracted_text, extraction_state, created_at
		FROM documents WHERE id = $1`

	var doc Document
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.FileName, &doc.DocType, &doc.StorageProvider,
		&doc.StorageKey, &doc.ExtractedText, &doc.ExtractionState, &doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest first.
func (r *PGRepo) List(ctx context.Context) ([]Document, error) {
	const query = `
		SELECT id, file_name, doc_type, storage_provider, storage_key, extracted_text, extraction_state, created_at
		FROM documents ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID, &doc.FileName, &doc.DocType, &doc.StorageProvider,
			&doc.StorageKey, &doc.ExtractedText, &doc.ExtractionState, &doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// UpdateExtraction replaces the extracted text and state for a document.
func (r *PGRepo) UpdateExtraction(ctx context.Context, id, text, state string) error {
	const query = `UPDATE documents SET extracted_text = $2, extraction_state = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, text, state)
	if err != nil {
		return fmt.Errorf("update document extraction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document extraction rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document record.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
