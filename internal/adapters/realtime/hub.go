// Package realtime is a single-writer, multi-reader pub/sub hub keyed by
// recipient user id. Delivery is best effort: a slow or disconnected
// subscriber never blocks the writer and never loses the durable
// notification path.
package realtime

import (
	"context"
	"sync"

	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Default hub configuration constants.
const (
	defaultSubscriberBuffer = 16
)

// Event is the payload pushed to connected listeners.
type Event = model.NotificationEvent

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// Hub fans events out to per-user subscriber channels.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	buffer      int
	closed      bool
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[string][]chan Event),
		buffer:      defaultSubscriberBuffer,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Subscribe registers a listener for the user and returns its channel
// plus a cancel function. The channel is closed on cancel or hub close.
func (h *Hub) Subscribe(_ context.Context, userID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[userID] = append(h.subscribers[userID], ch)
	total := h.total()
	h.mu.Unlock()

	metrics.UpdateRealtimeSubscribers(total)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.unsubscribe(userID, ch)
		})
	}
	return ch, cancel
}

func (h *Hub) unsubscribe(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[userID]
	for i, c := range subs {
		if c == ch {
			h.subscribers[userID] = append(subs[:i], subs[i+1:]...)
			close(c)
			break
		}
	}
	if len(h.subscribers[userID]) == 0 {
		delete(h.subscribers, userID)
	}
	metrics.UpdateRealtimeSubscribers(h.total())
}

// total counts subscribers. Must be called with the lock held.
func (h *Hub) total() int {
	var n int
	for _, subs := range h.subscribers {
		n += len(subs)
	}
	return n
}

// Publish delivers the event to all of the user's listeners without
// blocking. Returns true when at least one listener received it.
func (h *Hub) Publish(_ context.Context, userID string, e Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return false
	}

	var delivered bool
	for _, ch := range h.subscribers[userID] {
		select {
		case ch <- e:
			delivered = true
			metrics.RecordRealtimePublish()
		default:
			// Slow subscriber; the durable event path still holds the alert.
			metrics.RecordRealtimeDropped()
		}
	}
	return delivered
}

// Close shuts down the hub and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	h.subscribers = make(map[string][]chan Event)
	metrics.UpdateRealtimeSubscribers(0)
}
