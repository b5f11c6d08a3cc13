package issues

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo is a Postgres-backed issue repository.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo creates a Postgres repo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

// Create inserts an issue.
func (r *PGRepo) Create(ctx context.Context, issue Issue) error {
	const query = `
		INSERT INTO issues (id, title, description, priority, status, department, assignee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		issue.ID, issue.Title, issue.Description, issue.Priority,
		issue.Status, issue.Department, issue.Assignee, issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// List returns all issues, newest first.
func (r *PGRepo) List(ctx context.Context) ([]Issue, error) {
	const query = `
		SELECT id, title, description, priority, status, department, assignee, created_at
		FROM issues ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var issue Issue
		if err := rows.Scan(
			&issue.ID, &issue.Title, &issue.Description, &issue.Priority,
			&issue.Status, &issue.Department, &issue.Assignee, &issue.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
