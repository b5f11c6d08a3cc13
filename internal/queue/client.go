package queue

import "context"

// Client enqueues extraction jobs for asynchronous processing. The API server
// only needs Enqueue; the worker consumes through provider-specific polling.
type Client interface {
	Enqueue(ctx context.Context, msg Message) error
}
