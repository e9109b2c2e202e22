// Package repository defines the persistence boundary consumed by the
// decision core, plus in-memory reference implementations. The contracts
// mirror what a relational store offers: append + filtered reads for
// match records, compare-and-set on experiment status, and an atomic
// insert-if-absent used for notification dedupe.
package repository

import (
	"context"
	"time"

	"github.com/hirewire/matchcore/internal/domain/model"
)

// Order selects the ordering of a match listing.
type Order string

// Supported listing orders.
const (
	OrderByScoreDesc   Order = "score_desc"
	OrderByCreatedDesc Order = "created_desc"
)

// MatchFilter narrows a match listing. Zero values mean "no constraint".
type MatchFilter struct {
	OwnerID     string
	CandidateID string
	JobID       string
	From        time.Time
	To          time.Time
	MinOverall  float64
	Order       Order
	Limit       int
}

// FlagUpdate carries the monotonic lifecycle flags to set. False fields
// are left untouched; flags never transition back to false.
type FlagUpdate struct {
	Viewed      bool
	Recommended bool
	Applied     bool
}

// OutcomeUpdate records a terminal outcome on a match.
type OutcomeUpdate struct {
	Outcome     model.Outcome
	Date        time.Time
	Notes       string
	TimeToHire  *float64
	// Correction permits overwriting an already-terminal outcome.
	Correction bool
}

// MatchStore provides append-mostly access to match records.
type MatchStore interface {
	// Append durably adds a new match record.
	Append(ctx context.Context, rec model.MatchRecord) error

	// Get returns a record by id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.MatchRecord, error)

	// List returns records matching the filter in the requested order.
	List(ctx context.Context, f MatchFilter) ([]model.MatchRecord, error)

	// SetFlags ORs the given lifecycle flags into the record.
	SetFlags(ctx context.Context, id string, flags FlagUpdate) error

	// SetOutcome applies a terminal outcome. A second terminal write
	// without Correction fails with ErrOutcomeAlreadySet.
	SetOutcome(ctx context.Context, id string, upd OutcomeUpdate) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}

// ExperimentStore holds experiment definitions and variant counters.
type ExperimentStore interface {
	// PutDefinition inserts or replaces a definition.
	PutDefinition(ctx context.Context, def model.ExperimentDefinition) error

	// GetDefinition returns a definition by id, ErrNotFound if unknown.
	GetDefinition(ctx context.Context, id string) (model.ExperimentDefinition, error)

	// CompareAndSetStatus transitions the definition from one status to
	// another and freezes the decision fields in the same atomic step.
	// Returns ErrStatusConflict when the current status is not `from`.
	CompareAndSetStatus(ctx context.Context, id string, from, to model.ExperimentStatus, decision ExperimentDecision) error

	// PutVariantResult upserts the counters for one variant. Counters
	// must be monotonically non-decreasing while the experiment is
	// active; regressions fail with ErrCounterRegression.
	PutVariantResult(ctx context.Context, res model.ExperimentVariantResult) error

	// GetVariantResult returns the counters for one variant.
	GetVariantResult(ctx context.Context, experimentID string, v model.Variant) (model.ExperimentVariantResult, error)
}

// ExperimentDecision is the immutable decision payload written at
// completion. Zero value means "no decision fields to change".
type ExperimentDecision struct {
	Winner      model.Variant
	Confidence  float64
	Improvement float64
	DecidedAt   time.Time
}

// NotificationLog is the durable dedupe ledger and event log. The
// insert-if-absent is the sole source of truth for "already notified".
type NotificationLog interface {
	// InsertIfAbsent atomically records the event under its dedupe key
	// unless an entry with the same key exists within the cool-down
	// window ending at event.CreatedAt. A window of zero means the key
	// is suppressed forever once inserted. Returns true when the event
	// was inserted (i.e. the caller owns the emission).
	InsertIfAbsent(ctx context.Context, event model.NotificationEvent, window time.Duration) (bool, error)

	// Recent returns events recorded at or after the cutoff.
	Recent(ctx context.Context, cutoff time.Time) ([]model.NotificationEvent, error)

	// Count returns the number of logged events.
	Count(ctx context.Context) int
}

// WeightProfileStore provides read-shared weight profiles and collects
// tuning recommendations from analytics. Profiles are written only by an
// external configuration path, never by this core.
type WeightProfileStore interface {
	// Profile returns the owner's profile, or the default profile when
	// none is configured.
	Profile(ctx context.Context, ownerID string) (model.AttributeWeightProfile, error)

	// PutRecommendation stores a suggested profile for review. It never
	// replaces the active profile.
	PutRecommendation(ctx context.Context, ownerID string, rec model.AttributeWeightProfile) error

	// Recommendation returns the latest stored suggestion, ErrNotFound
	// when none exists.
	Recommendation(ctx context.Context, ownerID string) (model.AttributeWeightProfile, error)
}
