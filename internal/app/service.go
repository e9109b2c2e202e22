// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/mq/queue"
	workerpool "github.com/hirewire/matchcore/internal/adapters/mq/worker"
	"github.com/hirewire/matchcore/internal/adapters/realtime"
	"github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/analytics"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/internal/domain/scoring"
	"github.com/hirewire/matchcore/internal/domain/stats"
	"github.com/hirewire/matchcore/internal/experiments"
	"github.com/hirewire/matchcore/internal/notify"
	"github.com/hirewire/matchcore/internal/tracker"
	"github.com/hirewire/matchcore/pkg/logger"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Service wires the decision core: scoring, outcome tracking, analytics,
// experiment resolution, and the notification gate.
type Service struct {
	mu sync.RWMutex

	// Core components
	matches     repository.MatchStore
	experiments repository.ExperimentStore
	notifyLog   repository.NotificationLog
	weights     *repository.InMemoryWeightProfileStore
	calculator  *scoring.Calculator
	tracker     *tracker.Tracker
	analytics   *analytics.Engine
	resolver    *experiments.Resolver
	notifier    *notify.Notifier
	outbox      *queue.InMemoryQueue
	pool        *workerpool.Pool
	hub         *realtime.Hub
	dispatcher  workerpool.Dispatcher

	// Configuration
	highScoreThreshold  float64
	minSampleSize       int64
	zThreshold          float64
	coolDownWindow      time.Duration
	outboxSize          int
	dispatchWorkerCount int
	shardCount          int
	scoreCaps           map[string]float64
	defaultWeights      model.AttributeWeightProfile

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDispatcher sets the external notification boundary.
func WithDispatcher(d workerpool.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithHighScoreThreshold sets the match alert threshold.
func WithHighScoreThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.highScoreThreshold = threshold
		}
	}
}

// WithMinSampleSize sets the per-variant significance sample floor.
func WithMinSampleSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSampleSize = n
		}
	}
}

// WithZThreshold sets the significance z threshold.
func WithZThreshold(z float64) Option {
	return func(s *Service) {
		if z > 0 {
			s.zThreshold = z
		}
	}
}

// WithCoolDownWindow sets the dedupe window for windowed event classes.
func WithCoolDownWindow(w time.Duration) Option {
	return func(s *Service) {
		if w > 0 {
			s.coolDownWindow = w
		}
	}
}

// WithOutboxSize bounds the notification outbox.
func WithOutboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithDispatchWorkerCount sets the number of dispatch workers.
func WithDispatchWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.dispatchWorkerCount = count
		}
	}
}

// WithShardCount sets the match store shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithScoreCaps overrides scoring sub-factor caps.
func WithScoreCaps(caps map[string]float64) Option {
	return func(s *Service) {
		s.scoreCaps = caps
	}
}

// WithDefaultWeights sets the fallback weight profile.
func WithDefaultWeights(p model.AttributeWeightProfile) Option {
	return func(s *Service) {
		s.defaultWeights = p
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		highScoreThreshold:  tracker.DefaultHighScoreThreshold,
		minSampleSize:       stats.DefaultMinSampleSize,
		zThreshold:          stats.DefaultZThreshold,
		coolDownWindow:      notify.DefaultCoolDownWindow,
		outboxSize:          10_000,
		dispatchWorkerCount: 0, // pool falls back to NumCPU-based default
		shardCount:          8,
		defaultWeights:      model.DefaultWeightProfile(),
		logger:              nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting decision core...")

	s.matches = repository.NewInMemoryMatchStore(
		repository.WithShardCount(s.shardCount),
	)
	s.experiments = repository.NewInMemoryExperimentStore()
	s.notifyLog = repository.NewInMemoryNotificationLog()
	s.weights = repository.NewInMemoryWeightProfileStore(s.defaultWeights)

	s.outbox = queue.NewInMemoryQueue(
		queue.WithCapacity(s.outboxSize),
	)
	s.hub = realtime.NewHub()
	if s.dispatcher == nil {
		s.dispatcher = &loggingDispatcher{logger: s.logger.Named("boundary")}
	}
	s.pool = workerpool.NewPool(s.dispatchWorkerCount, s.outbox, s.dispatcher)
	s.pool.Start(ctx)

	s.notifier = notify.New(s.notifyLog, s.outbox,
		notify.WithPublisher(s.hub),
		notify.WithLogger(s.logger.Named("notifier")),
	)
	s.calculator = scoring.NewCalculator(
		scoring.WithCaps(s.scoreCaps),
	)
	s.tracker = tracker.New(s.matches, s.notifier,
		tracker.WithHighScoreThreshold(s.highScoreThreshold),
		tracker.WithLogger(s.logger.Named("tracker")),
	)
	s.analytics = analytics.New(s.matches, s.weights,
		analytics.WithLogger(s.logger.Named("analytics")),
	)
	s.resolver = experiments.New(s.experiments, s.notifier,
		experiments.WithTest(stats.NewTwoProportionTest(
			stats.WithMinSampleSize(s.minSampleSize),
			stats.WithZThreshold(s.zThreshold),
		)),
		experiments.WithCoolDownWindow(s.coolDownWindow),
		experiments.WithLogger(s.logger.Named("experiments")),
	)

	s.started = true
	s.logger.Info(ctx, "decision core started",
		logger.Float64("highScoreThreshold", s.highScoreThreshold),
		logger.Int("outboxSize", s.outboxSize),
		logger.Int("shardCount", s.shardCount),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping decision core...")

	if s.pool != nil {
		// Closing the outbox lets workers drain before exiting.
		_ = s.pool.Shutdown(ctx)
	}
	if s.hub != nil {
		s.hub.Close()
	}

	s.started = false
	s.logger.Info(ctx, "decision core stopped")
}

// ScoreRequest carries one scoring invocation.
type ScoreRequest struct {
	OwnerID   string
	Candidate model.CandidateProfile
	Job       model.JobProfile
}

// ScoreAndRecord computes a match score under the owner's weight profile
// and appends the resulting record. Re-scoring the same pair appends a
// new record; history is never mutated.
func (s *Service) ScoreAndRecord(ctx context.Context, req ScoreRequest) (model.MatchRecord, error) {
	start := time.Now()

	profile, err := s.weights.Profile(ctx, req.OwnerID)
	if err != nil {
		profile = s.defaultWeights
	}

	result := s.calculator.Score(req.Candidate, req.Job, profile)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	return s.tracker.RecordMatch(ctx, result, tracker.RecordContext{
		CandidateID:          req.Candidate.ID,
		JobID:                req.Job.ID,
		OwnerID:              req.OwnerID,
		WeightProfileVersion: profile.Version,
	})
}

// Match returns one match record.
func (s *Service) Match(ctx context.Context, id string) (model.MatchRecord, error) {
	return s.tracker.Get(ctx, id)
}

// Matches lists match records for the filter.
func (s *Service) Matches(ctx context.Context, f repository.MatchFilter) ([]model.MatchRecord, error) {
	return s.tracker.List(ctx, f)
}

// MarkViewed sets the viewed flag on a match.
func (s *Service) MarkViewed(ctx context.Context, id string) error {
	return s.tracker.MarkViewed(ctx, id)
}

// MarkRecommended sets the recommended flag on a match.
func (s *Service) MarkRecommended(ctx context.Context, id string) error {
	return s.tracker.MarkRecommended(ctx, id)
}

// MarkApplied sets the applied flag on a match.
func (s *Service) MarkApplied(ctx context.Context, id string) error {
	return s.tracker.MarkApplied(ctx, id)
}

// RecordOutcome applies a terminal outcome to a match.
func (s *Service) RecordOutcome(ctx context.Context, id string, in tracker.OutcomeInput) (model.MatchRecord, error) {
	return s.tracker.RecordOutcome(ctx, id, in)
}

// Aggregate runs the outcome analytics summary.
func (s *Service) Aggregate(ctx context.Context, ownerID string, tr analytics.TimeRange) analytics.Summary {
	return s.analytics.Aggregate(ctx, ownerID, tr)
}

// CorrelateAttributes runs the attribute correlation scan.
func (s *Service) CorrelateAttributes(ctx context.Context, ownerID string, tr analytics.TimeRange) []analytics.AttributeCorrelation {
	return s.analytics.CorrelateAttributes(ctx, ownerID, tr)
}

// Trend runs the calendar-bucketed trend query.
func (s *Service) Trend(ctx context.Context, ownerID string, tr analytics.TimeRange, b analytics.Bucketing) []analytics.TrendBucket {
	return s.analytics.Trend(ctx, ownerID, tr, b)
}

// RecommendWeights derives and stores a weight profile suggestion.
func (s *Service) RecommendWeights(ctx context.Context, ownerID string, tr analytics.TimeRange) (model.AttributeWeightProfile, error) {
	return s.analytics.RecommendWeights(ctx, ownerID, tr)
}

// CreateExperiment stores a new experiment definition.
func (s *Service) CreateExperiment(ctx context.Context, def model.ExperimentDefinition) error {
	return s.experiments.PutDefinition(ctx, def)
}

// Experiment returns one experiment definition.
func (s *Service) Experiment(ctx context.Context, id string) (model.ExperimentDefinition, error) {
	return s.experiments.GetDefinition(ctx, id)
}

// PutVariantResult upserts counters for one experiment variant.
func (s *Service) PutVariantResult(ctx context.Context, res model.ExperimentVariantResult) error {
	return s.experiments.PutVariantResult(ctx, res)
}

// EvaluateExperiment runs the resolver for one experiment.
func (s *Service) EvaluateExperiment(ctx context.Context, id string) (experiments.Evaluation, error) {
	return s.resolver.Evaluate(ctx, id)
}

// StartExperiment transitions a draft experiment to active.
func (s *Service) StartExperiment(ctx context.Context, id string) error {
	return s.resolver.Start(ctx, id)
}

// PauseExperiment transitions an active experiment to paused.
func (s *Service) PauseExperiment(ctx context.Context, id string) error {
	return s.resolver.Pause(ctx, id)
}

// ResumeExperiment transitions a paused experiment back to active.
func (s *Service) ResumeExperiment(ctx context.Context, id string) error {
	return s.resolver.Resume(ctx, id)
}

// Subscribe attaches a realtime listener for the user.
func (s *Service) Subscribe(ctx context.Context, userID string) (<-chan realtime.Event, func()) {
	return s.hub.Subscribe(ctx, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":            s.started,
		"highScoreThreshold": s.highScoreThreshold,
		"minSampleSize":      s.minSampleSize,
		"outboxSize":         s.outboxSize,
	}

	if s.started {
		stats["matchCount"] = s.matches.Count(ctx)
		stats["notificationCount"] = s.notifyLog.Count(ctx)
		stats["outboxLength"] = s.outbox.Len(ctx)

		metrics.UpdateOutboxSize(s.outbox.Len(ctx))
		metrics.UpdateRepositoryRecordsTotal(s.matches.Count(ctx))
	}

	return stats
}

// SetWeightProfile installs a tenant weight profile. This models the
// external configuration write path.
func (s *Service) SetWeightProfile(ctx context.Context, ownerID string, p model.AttributeWeightProfile) {
	s.weights.SetProfile(ctx, ownerID, p)
}

// loggingDispatcher is the default boundary: it logs what would be
// handed to push/email/SMS fan-out.
type loggingDispatcher struct {
	logger logger.Logger
}

func (d *loggingDispatcher) Dispatch(ctx context.Context, e workerpool.Event) error {
	d.logger.Info(ctx, "notification handed to boundary",
		logger.String("eventID", e.ID),
		logger.String("kind", string(e.Kind)),
		logger.String("recipient", e.RecipientUserID),
	)
	return nil
}
