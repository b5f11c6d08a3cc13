package queue

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage("doc-123", "req-456")

	body, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.DocumentID != "doc-123" {
		t.Fatalf("expected documentId doc-123, got %q", decoded.DocumentID)
	}
	if decoded.RequestID != "req-456" {
		t.Fatalf("expected requestId req-456, got %q", decoded.RequestID)
	}
	if decoded.Version != messageVersion {
		t.Fatalf("expected version %d, got %d", messageVersion, decoded.Version)
	}
}

func TestDecodeRejectsMissingDocumentID(t *testing.T) {
	_, err := Decode(`{"version":1,"enqueuedAt":"2026-01-01T00:00:00Z"}`)
	if err == nil || !strings.Contains(err.Error(), "documentId") {
		t.Fatalf("expected missing documentId error, got %v", err)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode(`{"version":99,"documentId":"doc-1"}`)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestDispatcherDeliversToHandler(t *testing.T) {
	done := make(chan Message, 1)
	d := NewDispatcher(4, func(ctx context.Context, msg Message) error {
		done <- msg
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if err := d.Enqueue(context.Background(), NewMessage("doc-9", "")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case msg := <-done:
		if msg.DocumentID != "doc-9" {
			t.Fatalf("expected doc-9, got %q", msg.DocumentID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestDispatcherFullBufferDropsWithoutBlocking(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(1, func(ctx context.Context, msg Message) error {
		<-block
		return nil
	})
	// Not started: the buffer absorbs exactly one message.
	if err := d.Enqueue(context.Background(), NewMessage("doc-a", "")); err != nil {
		t.Fatalf("first enqueue should succeed: %v", err)
	}
	if err := d.Enqueue(context.Background(), NewMessage("doc-b", "")); err == nil {
		t.Fatal("second enqueue should report a drop")
	}
	close(block)
}
