package chat

import (
	"errors"
	"time"
)

// Message roles.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message is one persisted chat turn.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

var (
	// ErrInvalidInput indicates an empty or malformed chat request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable indicates the configured model was rejected by the
	// provider, as opposed to a transient completion failure.
	ErrModelUnavailable = errors.New("configured model unavailable")
)
