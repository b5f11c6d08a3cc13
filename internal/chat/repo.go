package chat

import "context"

// Repo persists chat messages.
type Repo interface {
	Create(ctx context.Context, msg Message) error
	// ListAsc returns the full history in chronological order.
	ListAsc(ctx context.Context) ([]Message, error)
}
