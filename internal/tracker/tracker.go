// Package tracker persists scoring runs as match records and advances
// their lifecycle to a real-world outcome.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/internal/domain/scoring"
	"github.com/hirewire/matchcore/pkg/logger"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// DefaultHighScoreThreshold triggers a high-score alert on record.
const DefaultHighScoreThreshold = 85.0

// hoursPerDay converts outcome durations to fractional days.
const hoursPerDay = 24.0

// Notifier is the decision gate the tracker feeds qualifying matches to.
type Notifier interface {
	NotifyOnce(ctx context.Context, dedupeKey string, window time.Duration, build func() model.NotificationEvent) (bool, error)
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithHighScoreThreshold overrides the alert threshold.
func WithHighScoreThreshold(threshold float64) Option {
	return func(t *Tracker) {
		if threshold > 0 {
			t.highScoreThreshold = threshold
		}
	}
}

// WithClock overrides the tracker's clock.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tracker implements the match outcome lifecycle over a MatchStore.
type Tracker struct {
	store              repository.MatchStore
	notifier           Notifier
	highScoreThreshold float64
	clock              func() time.Time
	logger             logger.Logger
}

// New creates a Tracker over the given store and notification gate.
func New(store repository.MatchStore, notifier Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		store:              store,
		notifier:           notifier,
		highScoreThreshold: DefaultHighScoreThreshold,
		clock:              func() time.Time { return time.Now().UTC() },
		logger:             logger.Get().Named("tracker"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RecordContext carries the identifiers a scoring run belongs to.
type RecordContext struct {
	CandidateID          string
	JobID                string
	OwnerID              string
	WeightProfileVersion string
}

// RecordMatch appends a new match record for the scoring result. The
// record is durable before the high-score gate fires, so a crash between
// the two can leave a record without an alert but never an alert without
// a record.
func (t *Tracker) RecordMatch(ctx context.Context, res scoring.Result, rc RecordContext) (model.MatchRecord, error) {
	now := t.clock()
	rec := model.MatchRecord{
		ID:                   uuid.NewString(),
		CandidateID:          rc.CandidateID,
		JobID:                rc.JobID,
		OwnerID:              rc.OwnerID,
		Overall:              res.Overall,
		Skill:                res.Skill,
		Technical:            res.Technical,
		Culture:              res.Culture,
		Wellbeing:            res.Wellbeing,
		BurnoutRisk:          res.BurnoutRisk,
		TopAttributes:        res.TopAttributes,
		MatchedSkills:        res.MatchedSkills,
		Reasons:              res.Reasons,
		Outcome:              model.OutcomePending,
		WeightProfileVersion: rc.WeightProfileVersion,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := t.store.Append(ctx, rec); err != nil {
		// Losing a match record silently would break the audit trail.
		return model.MatchRecord{}, fmt.Errorf("append match record: %w", err)
	}
	metrics.RecordMatchScored()

	if rec.Overall >= t.highScoreThreshold {
		t.notifyHighScore(ctx, rec)
	}

	return rec, nil
}

// notifyHighScore fires the gate with a per-record dedupe key. No
// cool-down window: a record id is only ever scored-and-alerted once.
func (t *Tracker) notifyHighScore(ctx context.Context, rec model.MatchRecord) {
	emitted, err := t.notifier.NotifyOnce(ctx, "match:"+rec.ID, 0, func() model.NotificationEvent {
		return model.NotificationEvent{
			RecipientUserID:   rec.OwnerID,
			Kind:              model.NotificationHighScoreMatch,
			Title:             "High-scoring match found",
			Message:           fmt.Sprintf("Candidate %s scored %.0f for job %s", rec.CandidateID, rec.Overall, rec.JobID),
			RelatedEntityType: "match",
			RelatedEntityID:   rec.ID,
			Metadata: map[string]string{
				"candidate_id": rec.CandidateID,
				"job_id":       rec.JobID,
				"overall":      fmt.Sprintf("%.1f", rec.Overall),
			},
		}
	})
	if err != nil {
		// The record itself is durable; the alert is retryable upstream.
		t.logger.Error(ctx, "high-score notification failed",
			logger.String("matchID", rec.ID),
			logger.Error(err),
		)
		return
	}
	if emitted {
		metrics.RecordHighScoreAlert()
	}
}

// MarkViewed sets the viewed flag. Idempotent and monotonic.
func (t *Tracker) MarkViewed(ctx context.Context, matchID string) error {
	return t.setFlags(ctx, matchID, repository.FlagUpdate{Viewed: true})
}

// MarkRecommended sets the recommended flag. Idempotent and monotonic.
func (t *Tracker) MarkRecommended(ctx context.Context, matchID string) error {
	return t.setFlags(ctx, matchID, repository.FlagUpdate{Recommended: true})
}

// MarkApplied sets the applied flag. Idempotent and monotonic.
func (t *Tracker) MarkApplied(ctx context.Context, matchID string) error {
	return t.setFlags(ctx, matchID, repository.FlagUpdate{Applied: true})
}

func (t *Tracker) setFlags(ctx context.Context, matchID string, flags repository.FlagUpdate) error {
	if err := t.store.SetFlags(ctx, matchID, flags); err != nil {
		return fmt.Errorf("set lifecycle flags on %s: %w", matchID, err)
	}
	return nil
}

// OutcomeInput describes a terminal outcome transition.
type OutcomeInput struct {
	Outcome model.Outcome
	Date    time.Time
	Notes   string
	// Correction must be set to overwrite an existing terminal outcome.
	Correction bool
}

// RecordOutcome applies a terminal outcome to a match. A second terminal
// transition without the correction flag is rejected with
// repository.ErrOutcomeAlreadySet and leaves the first write intact.
func (t *Tracker) RecordOutcome(ctx context.Context, matchID string, in OutcomeInput) (model.MatchRecord, error) {
	if !in.Outcome.Terminal() {
		return model.MatchRecord{}, fmt.Errorf("outcome %q: %w", in.Outcome, repository.ErrInvalidOutcome)
	}

	rec, err := t.store.Get(ctx, matchID)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("load match %s: %w", matchID, err)
	}

	date := in.Date
	if date.IsZero() {
		date = t.clock()
	}

	upd := repository.OutcomeUpdate{
		Outcome:    in.Outcome,
		Date:       date,
		Notes:      in.Notes,
		Correction: in.Correction,
	}
	if in.Outcome == model.OutcomeHired {
		days := date.Sub(rec.CreatedAt).Hours() / hoursPerDay
		if days >= 0 {
			upd.TimeToHire = &days
		}
	}

	if err := t.store.SetOutcome(ctx, matchID, upd); err != nil {
		if errors.Is(err, repository.ErrOutcomeAlreadySet) {
			metrics.RecordOutcomeConflict()
		}
		return model.MatchRecord{}, fmt.Errorf("set outcome on %s: %w", matchID, err)
	}
	metrics.RecordOutcomeSet(string(in.Outcome))

	updated, err := t.store.Get(ctx, matchID)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("reload match %s: %w", matchID, err)
	}

	t.logger.Info(ctx, "outcome recorded",
		logger.String("matchID", matchID),
		logger.String("outcome", string(in.Outcome)),
		logger.Bool("correction", in.Correction),
	)
	return updated, nil
}

// Get returns a match record by id.
func (t *Tracker) Get(ctx context.Context, matchID string) (model.MatchRecord, error) {
	return t.store.Get(ctx, matchID)
}

// List returns match records for the filter.
func (t *Tracker) List(ctx context.Context, f repository.MatchFilter) ([]model.MatchRecord, error) {
	return t.store.List(ctx, f)
}
