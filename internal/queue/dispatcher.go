package queue

import (
	"context"
	"fmt"
	"sync"

	"opsdesk-backend/internal/shared/telemetry"
)

// Handler processes one dequeued message.
type Handler func(ctx context.Context, msg Message) error

// Dispatcher is an in-process bounded queue used when no SQS queue is
// configured. Enqueue never blocks the request path: when the buffer is full
// the job is dropped and counted, mirroring fire-and-forget semantics.
type Dispatcher struct {
	jobs    chan Message
	handler Handler

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given buffer depth.
func NewDispatcher(depth int, handler Handler) *Dispatcher {
	if depth <= 0 {
		depth = 64
	}
	return &Dispatcher{
		jobs:    make(chan Message, depth),
		handler: handler,
	}
}

// Enqueue hands the message to the background loop. A full buffer is reported
// as an error so the caller can log and count the drop.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.jobs <- msg:
		return nil
	default:
		return fmt.Errorf("dispatcher buffer full, dropping document %s", msg.DocumentID)
	}
}

// Start launches the consume loop. It returns immediately; processing stops
// when ctx is cancelled and in-flight work has drained.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run(ctx)
	})
}

// Wait blocks until the consume loop has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.jobs:
			if err := d.handler(ctx, msg); err != nil {
				telemetry.Error("queue.dispatch_failed", map[string]any{
					"document_id": msg.DocumentID,
					"request_id":  msg.RequestID,
					"error":       err.Error(),
				})
			}
		}
	}
}

var _ Client = (*Dispatcher)(nil)
