// Package queue provides the bounded in-memory outbox between the
// notification gate and the dispatch workers.
package queue

import (
	"context"
	"sync"

	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Default outbox configuration constants.
const (
	defaultCapacity = 10000
)

// Event is the payload type flowing through the outbox.
type Event = model.NotificationEvent

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event to the outbox.
	// Returns false if the outbox is full and the event was not enqueued.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel that receives events as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Close shuts down the queue. After closing, no new events can be
	// enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory outbox with options applied.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Event, q.capacity)

	metrics.UpdateOutboxCapacity(q.capacity)
	metrics.UpdateOutboxSize(0)
	metrics.UpdateOutboxUtilization(0.0)

	return q
}

// Enqueue adds an event to the outbox without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.events <- e:
		size := len(q.events)
		metrics.UpdateOutboxSize(size)
		metrics.UpdateOutboxUtilization(float64(size) / float64(q.capacity))
		return true
	default:
		// Outbox full; caller decides what backpressure means.
		return false
	}
}

// Dequeue returns the receive side of the outbox.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Event {
	return q.events
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.events)
}

// Close shuts down the queue and closes the dequeue channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrAlreadyClosed
	}
	q.closed = true
	close(q.events)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
