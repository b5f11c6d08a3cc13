package issues

import (
	"errors"
	"strings"
	"time"
)

// Priority levels assigned to tracked issues.
const (
	PriorityCritical = "Critical"
	PriorityNormal   = "Normal"
	PriorityLow      = "Low"
)

// StatusOpen is the status every newly created issue starts in, whether it
// came from the model or from an operator.
const StatusOpen = "Open"

// Issue is one actionable item on the operations board.
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Department  string    `json:"department"`
	Assignee    string    `json:"assignee"`
	CreatedAt   time.Time `json:"createdAt"`
}

var (
	// ErrNotFound indicates the issue does not exist.
	ErrNotFound = errors.New("issue not found")
	// ErrInvalidInput indicates a malformed issue payload.
	ErrInvalidInput = errors.New("invalid input")
)

// PriorityFromSeverity maps a model-reported severity to a board priority.
// The mapping is total: anything unrecognized lands on Low rather than
// failing the item.
func PriorityFromSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high", "critical":
		return PriorityCritical
	case "medium", "normal":
		return PriorityNormal
	default:
		return PriorityLow
	}
}
