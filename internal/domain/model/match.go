// Package model contains domain models passed between layers.
package model

import "time"

// Outcome is the terminal result of a scored candidate-job pairing.
type Outcome string

// Outcome values. Pending is the only non-terminal value.
const (
	OutcomePending   Outcome = "pending"
	OutcomeHired     Outcome = "hired"
	OutcomeRejected  Outcome = "rejected"
	OutcomeWithdrawn Outcome = "withdrawn"
)

// Terminal reports whether o ends a match lifecycle.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeHired, OutcomeRejected, OutcomeWithdrawn:
		return true
	default:
		return false
	}
}

// Valid reports whether o is a known outcome value.
func (o Outcome) Valid() bool {
	return o == OutcomePending || o.Terminal()
}

// AttributeContribution names one scored attribute and the points it added.
type AttributeContribution struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// MatchRecord is one persisted scoring run for a (candidate, job) pair.
// Records are append-only: re-scoring creates a new record tagged with the
// weight-profile version used, it never rewrites an existing row.
type MatchRecord struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
	OwnerID     string `json:"owner_id"`

	// Component scores, each in [0,100]. Nil means "not computed".
	Overall     float64  `json:"overall"`
	Skill       float64  `json:"skill"`
	Technical   float64  `json:"technical"`
	Culture     float64  `json:"culture"`
	Wellbeing   float64  `json:"wellbeing"`
	BurnoutRisk *float64 `json:"burnout_risk,omitempty"`

	TopAttributes []AttributeContribution `json:"top_attributes,omitempty"`
	MatchedSkills []string                `json:"matched_skills,omitempty"`
	Reasons       []string                `json:"reasons,omitempty"`

	// Monotonic one-way lifecycle flags set by upstream consumers.
	WasViewed      bool `json:"was_viewed"`
	WasRecommended bool `json:"was_recommended"`
	WasApplied     bool `json:"was_applied"`

	Outcome      Outcome    `json:"outcome"`
	OutcomeDate  *time.Time `json:"outcome_date,omitempty"`
	OutcomeNotes string     `json:"outcome_notes,omitempty"`

	// Derived once a terminal outcome lands.
	TimeToHireDays  *float64 `json:"time_to_hire_days,omitempty"`
	RetentionMonths *int     `json:"retention_months,omitempty"`

	WeightProfileVersion string    `json:"weight_profile_version"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
