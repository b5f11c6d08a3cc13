package documents

import "context"

// Repo persists document records.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context) ([]Document, error)
	UpdateExtraction(ctx context.Context, id, text, state string) error
	Delete(ctx context.Context, id string) error
}
