package issues

import "context"

// Repo persists issues.
type Repo interface {
	Create(ctx context.Context, issue Issue) error
	List(ctx context.Context) ([]Issue, error)
}
