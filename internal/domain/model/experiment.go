package model

import "time"

// ExperimentStatus is the lifecycle state of a two-variant campaign test.
type ExperimentStatus string

// Experiment lifecycle states. Completed is terminal.
const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentActive    ExperimentStatus = "active"
	ExperimentCompleted ExperimentStatus = "completed"
	ExperimentPaused    ExperimentStatus = "paused"
)

// Variant identifies one arm of a two-variant experiment.
type Variant string

// Variant identifiers, plus the no-winner marker stored on resolution.
const (
	VariantA Variant = "A"
	VariantB Variant = "B"
	NoWinner Variant = "no_winner"
)

// ExperimentMetric selects which counter drives the significance test.
type ExperimentMetric string

// Primary metrics an experiment can be resolved on.
const (
	MetricOpenRate       ExperimentMetric = "open_rate"
	MetricClickRate      ExperimentMetric = "click_rate"
	MetricConversionRate ExperimentMetric = "conversion_rate"
)

// ExperimentDefinition is a named test over an email type with exactly
// two variants. Once Status is completed, the winner and decision inputs
// are immutable.
type ExperimentDefinition struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"owner_id"`
	Name          string           `json:"name"`
	EmailType     string           `json:"email_type"`
	PrimaryMetric ExperimentMetric `json:"primary_metric"`
	Status        ExperimentStatus `json:"status"`

	// Decision fields, frozen at completion.
	WinnerVariant   Variant    `json:"winner_variant,omitempty"`
	ConfidenceLevel float64    `json:"confidence_level,omitempty"`
	Improvement     float64    `json:"improvement,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExperimentVariantResult carries the monotonically non-decreasing
// delivery counters for one variant of one experiment.
type ExperimentVariantResult struct {
	ExperimentID string  `json:"experiment_id"`
	Variant      Variant `json:"variant"`
	Sent         int64   `json:"sent"`
	Opened       int64   `json:"opened"`
	Clicked      int64   `json:"clicked"`
	Converted    int64   `json:"converted"`
}

// Rate returns the variant's rate for the given primary metric.
// A variant with zero sends has rate zero.
func (r ExperimentVariantResult) Rate(metric ExperimentMetric) float64 {
	if r.Sent == 0 {
		return 0
	}
	switch metric {
	case MetricClickRate:
		return float64(r.Clicked) / float64(r.Sent)
	case MetricConversionRate:
		return float64(r.Converted) / float64(r.Sent)
	default:
		return float64(r.Opened) / float64(r.Sent)
	}
}
