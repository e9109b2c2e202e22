// Package notify implements the threshold notification gate. Every
// qualifying decision event funnels through NotifyOnce, which leans on
// the notification log's atomic insert-if-absent for idempotency.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/logger"
)

// DefaultCoolDownWindow applies to budget/experiment-class events.
const DefaultCoolDownWindow = 24 * time.Hour

// Outbox is where emitted events go for asynchronous boundary dispatch.
type Outbox interface {
	Enqueue(ctx context.Context, e model.NotificationEvent) bool
}

// Publisher pushes events to currently-connected listeners, best effort.
type Publisher interface {
	Publish(ctx context.Context, userID string, e model.NotificationEvent) bool
}

// Option applies a configuration option to the Notifier.
type Option func(*Notifier)

// WithPublisher attaches an optional realtime publisher.
func WithPublisher(p Publisher) Option {
	return func(n *Notifier) {
		if p != nil {
			n.publisher = p
		}
	}
}

// WithClock overrides the notifier's clock.
func WithClock(clock func() time.Time) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// Notifier decides, idempotently, whether a qualifying event is emitted.
type Notifier struct {
	log       repository.NotificationLog
	outbox    Outbox
	publisher Publisher
	clock     func() time.Time
	logger    logger.Logger
}

// New creates a Notifier over the given dedupe log and outbox.
func New(log repository.NotificationLog, outbox Outbox, opts ...Option) *Notifier {
	n := &Notifier{
		log:    log,
		outbox: outbox,
		clock:  func() time.Time { return time.Now().UTC() },
		logger: logger.Get().Named("notifier"),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// NotifyOnce emits the event built by build at most once per dedupeKey
// within the cool-down window. window <= 0 means the key is emitted at
// most once, ever. Returns true when this call owned the emission.
//
// The insert into the notification log is the sole source of truth for
// "already notified"; concurrent calls for the same key race on that
// single atomic insert, never on in-process state.
func (n *Notifier) NotifyOnce(ctx context.Context, dedupeKey string, window time.Duration, build func() model.NotificationEvent) (bool, error) {
	event := build()
	event.DedupeKey = dedupeKey
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = n.clock()
	}

	inserted, err := n.log.InsertIfAbsent(ctx, event, window)
	if err != nil {
		return false, fmt.Errorf("notification dedupe insert: %w", err)
	}
	if !inserted {
		n.logger.Debug(ctx, "notification suppressed by dedupe",
			logger.String("dedupeKey", dedupeKey),
		)
		return false, nil
	}

	// The event is durable in the log at this point. Outbox backpressure
	// loses only the asynchronous hand-off, not the record of emission.
	if !n.outbox.Enqueue(ctx, event) {
		n.logger.Warn(ctx, "notification outbox full; event logged but not dispatched",
			logger.String("dedupeKey", dedupeKey),
		)
	}

	if n.publisher != nil && event.RecipientUserID != "" {
		// Best effort; a disconnected subscriber still has the durable event.
		n.publisher.Publish(ctx, event.RecipientUserID, event)
	}

	n.logger.Info(ctx, "notification emitted",
		logger.String("dedupeKey", dedupeKey),
		logger.String("kind", string(event.Kind)),
	)
	return true, nil
}
