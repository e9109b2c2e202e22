package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// logEntry tracks the last insertion time per dedupe key alongside the
// stored events.
type logEntry struct {
	lastInsert time.Time
}

// InMemoryNotificationLog implements NotificationLog. The check-and-insert
// happens under one lock so two concurrent callers for the same key can
// never both win, mirroring what an INSERT ... ON CONFLICT DO NOTHING
// gives the relational implementation.
type InMemoryNotificationLog struct {
	mu     sync.Mutex
	keys   map[string]logEntry
	events []model.NotificationEvent
}

// NewInMemoryNotificationLog creates an empty notification log.
func NewInMemoryNotificationLog() *InMemoryNotificationLog {
	return &InMemoryNotificationLog{
		keys: make(map[string]logEntry),
	}
}

// InsertIfAbsent atomically records the event unless the same dedupe key
// was inserted within the cool-down window. window <= 0 suppresses the
// key forever once present.
func (l *InMemoryNotificationLog) InsertIfAbsent(_ context.Context, event model.NotificationEvent, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := event.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if entry, ok := l.keys[event.DedupeKey]; ok {
		if window <= 0 || now.Sub(entry.lastInsert) < window {
			metrics.RecordNotificationSuppressed()
			return false, nil
		}
	}

	l.keys[event.DedupeKey] = logEntry{lastInsert: now}
	l.events = append(l.events, event)
	metrics.RecordNotificationEmitted()
	return true, nil
}

// Recent returns events recorded at or after the cutoff.
func (l *InMemoryNotificationLog) Recent(_ context.Context, cutoff time.Time) ([]model.NotificationEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.NotificationEvent
	for _, e := range l.events {
		if !e.CreatedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of logged events.
func (l *InMemoryNotificationLog) Count(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
