package issues

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory issue repository for DB-less operation.
type MemoryRepo struct {
	mu     sync.RWMutex
	issues map[string]Issue
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{issues: make(map[string]Issue)}
}

// Create stores an issue.
func (r *MemoryRepo) Create(ctx context.Context, issue Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[issue.ID] = issue
	return nil
}

// List returns all issues, newest first.
func (r *MemoryRepo) List(ctx context.Context) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
