// Package queue holds assignment requests between the producers (flight-data
// watcher, HTTP surface) and the single orchestrator consumer.
package queue

import (
	"context"
	"sync"

	"github.com/okian/gatedirector/internal/domain/model"
	"github.com/okian/gatedirector/pkg/metrics"
)

const defaultCapacity = 64

// Queue is a FIFO of requests with non-blocking enqueue and blocking pop.
type Queue interface {
	// Enqueue adds r without blocking. It fails with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, r model.Request) error

	// Pop blocks until a request is available, ctx is done, or the queue is
	// closed and drained (ErrClosed).
	Pop(ctx context.Context) (model.Request, error)

	// Len returns the number of pending requests.
	Len() int

	// Close stops accepting requests. Pending requests can still be popped.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan model.Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// New creates a new in-memory queue.
func New(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan model.Request, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r model.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Read lock keeps Close from closing the channel under a send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.requests <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.requests))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Pop implements Queue.
func (q *InMemoryQueue) Pop(ctx context.Context) (model.Request, error) {
	select {
	case r, ok := <-q.requests:
		if !ok {
			return model.Request{}, ErrClosed
		}
		metrics.RecordQueueDequeue()
		metrics.UpdateQueueSize(len(q.requests))
		return r, nil
	case <-ctx.Done():
		return model.Request{}, ctx.Err()
	}
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.requests)
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
