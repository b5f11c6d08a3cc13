package llm

import (
	"context"
	"errors"
)

// Client abstracts hosted model providers for text completion.
type Client interface {
	// Complete returns the model's reply for a single text prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// CompleteAudio returns the model's reply for an instruction plus inline
	// audio payload (voice turns).
	CompleteAudio(ctx context.Context, instruction string, audio []byte, mimeType string) (string, error)
}

// ErrModelNotFound indicates the configured model identifier was rejected by
// the provider. Callers surface this distinctly from generic failures.
var ErrModelNotFound = errors.New("model not found")

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

// CompleteAudio returns ErrNotConfigured.
func (PlaceholderClient) CompleteAudio(ctx context.Context, instruction string, audio []byte, mimeType string) (string, error) {
	_ = ctx
	_ = instruction
	_ = audio
	_ = mimeType
	return "", ErrNotConfigured
}
