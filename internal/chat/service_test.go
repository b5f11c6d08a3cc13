package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"opsdesk-backend/internal/documents"
	"opsdesk-backend/internal/llm"
)

type scriptedLLM struct {
	reply      string
	err        error
	lastPrompt string
	audioCalls int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *scriptedLLM) CompleteAudio(ctx context.Context, instruction string, audio []byte, mimeType string) (string, error) {
	s.audioCalls++
	s.lastPrompt = instruction
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestService(client llm.Client, docs ...documents.Document) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	builder := NewContextBuilder(&staticDocs{docs: docs})
	return NewService(repo, builder, client), repo
}

func TestHandleTurnPersistsBothMessages(t *testing.T) {
	client := &scriptedLLM{reply: "The generator test is scheduled for Friday."}
	svc, repo := newTestService(client,
		docAt("1", "schedule.txt", "generator test friday 9am", 1))

	aiMsg, err := svc.HandleTurn(context.Background(), "When is the generator test?")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if aiMsg.Role != RoleAI {
		t.Fatalf("expected ai role, got %q", aiMsg.Role)
	}

	history, err := repo.ListAsc(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected user+ai rows, got %d", len(history))
	}
	if history[0].Role != RoleUser || history[1].Role != RoleAI {
		t.Fatalf("expected chronological user then ai, got %q then %q", history[0].Role, history[1].Role)
	}
	if !strings.Contains(client.lastPrompt, "generator test friday 9am") {
		t.Fatalf("document context missing from prompt: %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "When is the generator test?") {
		t.Fatalf("question missing from prompt: %q", client.lastPrompt)
	}
}

func TestHandleTurnEmptyStoreUsesFallbackContext(t *testing.T) {
	client := &scriptedLLM{reply: "No documents are loaded yet."}
	svc, repo := newTestService(client)

	if _, err := svc.HandleTurn(context.Background(), "status?"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(client.lastPrompt, fallbackContext) {
		t.Fatalf("expected fallback context in prompt: %q", client.lastPrompt)
	}

	history, _ := repo.ListAsc(context.Background())
	if len(history) != 2 || history[0].Role != RoleUser || history[1].Role != RoleAI {
		t.Fatalf("expected persisted user then ai pair, got %+v", history)
	}
}

func TestHandleTurnModelFailureKeepsUserMessageOnly(t *testing.T) {
	client := &scriptedLLM{err: errors.New("upstream 500")}
	svc, repo := newTestService(client)

	_, err := svc.HandleTurn(context.Background(), "anything there?")
	if err == nil {
		t.Fatal("expected error on model failure")
	}

	history, _ := repo.ListAsc(context.Background())
	if len(history) != 1 {
		t.Fatalf("expected only the user row, got %d", len(history))
	}
	if history[0].Role != RoleUser {
		t.Fatalf("expected user row, got %q", history[0].Role)
	}
}

func TestHandleTurnModelNotFoundIsDistinct(t *testing.T) {
	client := &scriptedLLM{err: llm.ErrModelNotFound}
	svc, _ := newTestService(client)

	_, err := svc.HandleTurn(context.Background(), "hello")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	svc, repo := newTestService(&scriptedLLM{reply: "x"})

	_, err := svc.HandleTurn(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	history, _ := repo.ListAsc(context.Background())
	if len(history) != 0 {
		t.Fatalf("empty message must not be persisted, got %d rows", len(history))
	}
}

func TestHandleVoiceTurnNotPersisted(t *testing.T) {
	client := &scriptedLLM{reply: "Two pumps are offline."}
	svc, repo := newTestService(client,
		docAt("1", "status.txt", "pump 3 and pump 7 offline", 1))

	reply, err := svc.HandleVoiceTurn(context.Background(), []byte{0x1a, 0x45}, "audio/webm")
	if err != nil {
		t.Fatalf("voice turn: %v", err)
	}
	if reply != "Two pumps are offline." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if client.audioCalls != 1 {
		t.Fatalf("expected one audio completion, got %d", client.audioCalls)
	}
	if !strings.Contains(client.lastPrompt, "pump 3 and pump 7 offline") {
		t.Fatalf("context missing from voice instruction: %q", client.lastPrompt)
	}

	history, _ := repo.ListAsc(context.Background())
	if len(history) != 0 {
		t.Fatalf("voice turns must not enter chat history, got %d rows", len(history))
	}
}

func TestHandleVoiceTurnEmptyAudio(t *testing.T) {
	svc, _ := newTestService(&scriptedLLM{reply: "x"})
	_, err := svc.HandleVoiceTurn(context.Background(), nil, "audio/webm")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
