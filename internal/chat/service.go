package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsdesk-backend/internal/llm"
	"opsdesk-backend/internal/shared/metrics"
	"opsdesk-backend/internal/shared/telemetry"
)

const turnPromptTemplate = `You are the assistant on an operations dashboard. Ground every answer in the document context below. If the context does not cover the question, say so instead of guessing.

Context:
%s

Question: %s`

const voiceInstructionTemplate = `You are the assistant on an operations dashboard. The attached audio is a spoken question from an operator. Answer it concisely, grounded in the document context below. If the context does not cover the question, say so instead of guessing.

Context:
%s`

// Service orchestrates chat turns: persistence, context assembly, and the
// model round trip.
type Service struct {
	repo    Repo
	builder *ContextBuilder
	client  llm.Client
}

// NewService wires the chat service.
func NewService(repo Repo, builder *ContextBuilder, client llm.Client) *Service {
	return &Service{repo: repo, builder: builder, client: client}
}

// HandleTurn processes one text chat turn. The user message is persisted
// before the model is called, so history keeps the question even when the
// reply fails. No AI row is written on failure.
func (s *Service) HandleTurn(ctx context.Context, userText string) (Message, error) {
	start := time.Now()

	text := strings.TrimSpace(userText)
	if text == "" {
		return Message{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	userMsg := Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, userMsg); err != nil {
		return Message{}, fmt.Errorf("persist user message: %w", err)
	}

	docContext, err := s.builder.Build(ctx)
	if err != nil {
		metrics.IncChatTurnFailed()
		return Message{}, err
	}

	reply, err := s.client.Complete(ctx, fmt.Sprintf(turnPromptTemplate, docContext, text))
	if err != nil {
		metrics.IncChatTurnFailed()
		telemetry.Error("chat.turn_failed", map[string]any{"error": err.Error()})
		if errors.Is(err, llm.ErrModelNotFound) {
			return Message{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}

	aiMsg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAI,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, aiMsg); err != nil {
		metrics.IncChatTurnFailed()
		return Message{}, fmt.Errorf("persist ai message: %w", err)
	}

	metrics.IncChatTurn()
	metrics.ObserveChatTurnDurationMs(float64(time.Since(start).Milliseconds()))
	return aiMsg, nil
}

// HandleVoiceTurn processes one spoken turn. Voice turns share the same
// context assembly but are not written to the chat history.
func (s *Service) HandleVoiceTurn(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: audio payload is empty", ErrInvalidInput)
	}

	docContext, err := s.builder.Build(ctx)
	if err != nil {
		return "", err
	}

	reply, err := s.client.CompleteAudio(ctx, fmt.Sprintf(voiceInstructionTemplate, docContext), audio, mimeType)
	if err != nil {
		telemetry.Error("chat.voice_turn_failed", map[string]any{"error": err.Error()})
		if errors.Is(err, llm.ErrModelNotFound) {
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return "", fmt.Errorf("voice completion: %w", err)
	}
	return reply, nil
}

// History returns the persisted chat transcript in chronological order.
func (s *Service) History(ctx context.Context) ([]Message, error) {
	return s.repo.ListAsc(ctx)
}
