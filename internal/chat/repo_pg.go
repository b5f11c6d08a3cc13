package chat

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo is a Postgres-backed chat message repository.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo creates a Postgres repo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

// Create inserts a chat message.
func (r *PGRepo) Create(ctx context.Context, msg Message) error {
	const query = `
		INSERT INTO chat_messages (id, role, content, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListAsc returns the full history in chronological order.
func (r *PGRepo) ListAsc(ctx context.Context) ([]Message, error) {
	const query = `
		SELECT id, role, content, created_at
		FROM chat_messages ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
