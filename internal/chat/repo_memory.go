package chat

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory chat message repository for DB-less operation.
// Messages are kept in insertion order, which is chronological.
type MemoryRepo struct {
	mu   sync.RWMutex
	msgs []Message
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a chat message.
func (r *MemoryRepo) Create(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// ListAsc returns the full history in chronological order.
func (r *MemoryRepo) ListAsc(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
