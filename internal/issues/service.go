package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateInput is a manually filed issue.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	Department  string
	Assignee    string
}

// Service exposes issue board operations.
type Service struct {
	repo Repo
}

// NewService wires the issue service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// List returns all issues, newest first.
func (s *Service) List(ctx context.Context) ([]Issue, error) {
	return s.repo.List(ctx)
}

// Create files a manual issue. New issues always start Open.
func (s *Service) Create(ctx context.Context, in CreateInput) (Issue, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Issue{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	issue := Issue{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    normalizePriority(in.Priority),
		Status:      StatusOpen,
		Department:  defaultString(in.Department, "General"),
		Assignee:    defaultString(in.Assignee, "Unassigned"),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		return Issue{}, err
	}
	return issue, nil
}

func normalizePriority(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return PriorityCritical
	case "normal":
		return PriorityNormal
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}
