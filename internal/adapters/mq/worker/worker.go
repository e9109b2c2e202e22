// Package worker drains the notification outbox into the external
// delivery boundary.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/mq/queue"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/logger"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event is what workers read off the outbox.
type Event = model.NotificationEvent

// Dispatcher hands an event to the external notification boundary. The
// boundary owns fan-out to push/email/SMS; the core only guarantees
// at-most-one logical emission per dedupe key.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// Worker processes outbox events through the dispatcher.
type Worker struct {
	queue      Queue
	dispatcher Dispatcher
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, dispatcher Dispatcher, opts ...Option) *Worker {
	w := &Worker{
		queue:      q,
		dispatcher: dispatcher,
		name:       "dispatch",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("dispatch"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "dispatch" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error dispatching event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent hands a single event to the boundary.
func (w *Worker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	err := w.dispatcher.Dispatch(ctx, event)
	metrics.RecordDispatchLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordDispatchError()
		metrics.RecordErrorByComponent("dispatch", "boundary_error")
		w.logger.Error(ctx, "dispatch failed",
			logger.String("eventID", event.ID),
			logger.String("dedupeKey", event.DedupeKey),
			logger.Error(err),
		)
		return fmt.Errorf("dispatch event %s: %w", event.ID, err)
	}

	w.logger.Debug(ctx, "event dispatched",
		logger.String("eventID", event.ID),
		logger.String("kind", string(event.Kind)),
	)
	return nil
}

// Pool manages multiple dispatch workers.
type Pool struct {
	workers []*Worker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a dispatch worker pool.
func NewPool(workerCount int, q Queue, dispatcher Dispatcher) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*Worker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("dispatch-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(
			q,
			dispatcher,
			WithName("dispatch-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateDispatchWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing outbox", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
