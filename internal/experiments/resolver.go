// Package experiments resolves two-variant email campaign tests with a
// two-proportion significance test and drives the experiment lifecycle.
package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/internal/domain/stats"
	"github.com/hirewire/matchcore/pkg/logger"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Notifier is the decision gate a completed experiment announces through.
type Notifier interface {
	NotifyOnce(ctx context.Context, dedupeKey string, window time.Duration, build func() model.NotificationEvent) (bool, error)
}

// Evaluation is the outcome of one resolver pass.
type Evaluation struct {
	IsSignificant   bool          `json:"is_significant"`
	Winner          model.Variant `json:"winner,omitempty"`
	ConfidenceLevel float64       `json:"confidence_level"`
	Improvement     float64       `json:"improvement"`
	// AlreadyCompleted is true when the experiment had a stored winner
	// before this pass; the stored decision is returned untouched.
	AlreadyCompleted bool `json:"already_completed"`
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTest overrides the significance test (sample size, z threshold).
func WithTest(t *stats.TwoProportionTest) Option {
	return func(r *Resolver) {
		if t != nil {
			r.test = t
		}
	}
}

// WithCoolDownWindow sets the dedupe window for winner notifications.
func WithCoolDownWindow(w time.Duration) Option {
	return func(r *Resolver) {
		if w > 0 {
			r.coolDown = w
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver evaluates experiments and owns the active -> completed
// transition.
type Resolver struct {
	store    repository.ExperimentStore
	notifier Notifier
	test     *stats.TwoProportionTest
	coolDown time.Duration
	logger   logger.Logger
}

// New creates a Resolver over the given store and notification gate.
func New(store repository.ExperimentStore, notifier Notifier, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		notifier: notifier,
		test:     stats.NewTwoProportionTest(),
		coolDown: 24 * time.Hour,
		logger:   logger.Get().Named("experiments"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Evaluate runs the significance test for the experiment's primary
// metric and, when the result is significant, completes the experiment
// through an atomic status compare-and-set. Evaluating an already
// completed experiment is a no-op returning the stored winner.
func (r *Resolver) Evaluate(ctx context.Context, experimentID string) (Evaluation, error) {
	metrics.RecordExperimentEvaluated()

	def, err := r.store.GetDefinition(ctx, experimentID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("load experiment %s: %w", experimentID, err)
	}

	if def.Status == model.ExperimentCompleted {
		return Evaluation{
			IsSignificant:    def.WinnerVariant == model.VariantA || def.WinnerVariant == model.VariantB,
			Winner:           def.WinnerVariant,
			ConfidenceLevel:  def.ConfidenceLevel,
			Improvement:      def.Improvement,
			AlreadyCompleted: true,
		}, nil
	}
	if def.Status != model.ExperimentActive {
		return Evaluation{}, fmt.Errorf("experiment %s is %s: %w", experimentID, def.Status, repository.ErrStatusConflict)
	}

	resA, err := r.store.GetVariantResult(ctx, experimentID, model.VariantA)
	if err != nil {
		return Evaluation{}, fmt.Errorf("load variant A for %s: %w", experimentID, err)
	}
	resB, err := r.store.GetVariantResult(ctx, experimentID, model.VariantB)
	if err != nil {
		return Evaluation{}, fmt.Errorf("load variant B for %s: %w", experimentID, err)
	}

	ev := r.evaluateResults(def.PrimaryMetric, resA, resB)
	if !ev.IsSignificant {
		return ev, nil
	}

	// Re-check-and-set: the store verifies the experiment is still
	// active immediately before committing the winner, so concurrent
	// passes cannot both declare victory.
	decision := repository.ExperimentDecision{
		Winner:      ev.Winner,
		Confidence:  ev.ConfidenceLevel,
		Improvement: ev.Improvement,
	}
	err = r.store.CompareAndSetStatus(ctx, experimentID, model.ExperimentActive, model.ExperimentCompleted, decision)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Another pass won the race; return its stored decision.
		completed, getErr := r.store.GetDefinition(ctx, experimentID)
		if getErr != nil {
			return Evaluation{}, fmt.Errorf("reload experiment %s: %w", experimentID, getErr)
		}
		return Evaluation{
			IsSignificant:    true,
			Winner:           completed.WinnerVariant,
			ConfidenceLevel:  completed.ConfidenceLevel,
			Improvement:      completed.Improvement,
			AlreadyCompleted: true,
		}, nil
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("complete experiment %s: %w", experimentID, err)
	}
	metrics.RecordExperimentCompleted()

	r.notifyWinner(ctx, def, ev)
	return ev, nil
}

// evaluateResults maps variant counters through the z-test.
func (r *Resolver) evaluateResults(metric model.ExperimentMetric, resA, resB model.ExperimentVariantResult) Evaluation {
	res := r.test.Evaluate(resA.Rate(metric), resA.Sent, resB.Rate(metric), resB.Sent)

	ev := Evaluation{
		IsSignificant:   res.IsSignificant,
		ConfidenceLevel: res.Confidence,
		Improvement:     res.Improvement,
	}
	if res.IsSignificant {
		if res.AWins {
			ev.Winner = model.VariantA
		} else {
			ev.Winner = model.VariantB
		}
	}
	return ev
}

// notifyWinner announces the completed experiment through the gate.
func (r *Resolver) notifyWinner(ctx context.Context, def model.ExperimentDefinition, ev Evaluation) {
	key := fmt.Sprintf("experiment:%s:winner", def.ID)
	_, err := r.notifier.NotifyOnce(ctx, key, r.coolDown, func() model.NotificationEvent {
		return model.NotificationEvent{
			RecipientUserID:   def.OwnerID,
			Kind:              model.NotificationExperimentWinner,
			Title:             "Experiment resolved",
			Message:           fmt.Sprintf("%s: variant %s won with %.1f%% improvement", def.Name, ev.Winner, ev.Improvement),
			RelatedEntityType: "experiment",
			RelatedEntityID:   def.ID,
			Metadata: map[string]string{
				"winner":      string(ev.Winner),
				"confidence":  fmt.Sprintf("%.0f", ev.ConfidenceLevel),
				"improvement": fmt.Sprintf("%.1f", ev.Improvement),
			},
		}
	})
	if err != nil {
		r.logger.Error(ctx, "winner notification failed",
			logger.String("experimentID", def.ID),
			logger.Error(err),
		)
	}
}

// Start transitions a draft experiment to active.
func (r *Resolver) Start(ctx context.Context, experimentID string) error {
	return r.transition(ctx, experimentID, model.ExperimentDraft, model.ExperimentActive)
}

// Pause transitions an active experiment to paused.
func (r *Resolver) Pause(ctx context.Context, experimentID string) error {
	return r.transition(ctx, experimentID, model.ExperimentActive, model.ExperimentPaused)
}

// Resume transitions a paused experiment back to active.
func (r *Resolver) Resume(ctx context.Context, experimentID string) error {
	return r.transition(ctx, experimentID, model.ExperimentPaused, model.ExperimentActive)
}

func (r *Resolver) transition(ctx context.Context, experimentID string, from, to model.ExperimentStatus) error {
	err := r.store.CompareAndSetStatus(ctx, experimentID, from, to, repository.ExperimentDecision{})
	if err != nil {
		return fmt.Errorf("transition experiment %s %s -> %s: %w", experimentID, from, to, err)
	}
	r.logger.Info(ctx, "experiment transitioned",
		logger.String("experimentID", experimentID),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
	)
	return nil
}
