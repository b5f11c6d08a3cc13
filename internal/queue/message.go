package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const messageVersion = 1

// Message is the payload handed from the API to the issue-extraction worker.
type Message struct {
	Version    int       `json:"version"`
	DocumentID string    `json:"documentId"`
	RequestID  string    `json:"requestId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewMessage builds a versioned message for a document.
func NewMessage(documentID, requestID string) Message {
	return Message{
		Version:    messageVersion,
		DocumentID: documentID,
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Encode renders the message as its JSON wire form.
func (m Message) Encode() (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode queue message: %w", err)
	}
	return string(raw), nil
}

// Decode parses a wire-form message and validates the fields the worker
// depends on.
func Decode(body string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return Message{}, fmt.Errorf("decode queue message: %w", err)
	}
	if msg.Version != messageVersion {
		return Message{}, fmt.Errorf("unsupported queue message version %d", msg.Version)
	}
	if strings.TrimSpace(msg.DocumentID) == "" {
		return Message{}, fmt.Errorf("queue message missing documentId")
	}
	return msg, nil
}
