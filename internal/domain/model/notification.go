package model

import "time"

// NotificationKind classifies an emitted decision event.
type NotificationKind string

// Notification kinds produced by the core.
const (
	NotificationHighScoreMatch   NotificationKind = "high_score_match"
	NotificationExperimentWinner NotificationKind = "experiment_winner"
	NotificationBudgetThreshold  NotificationKind = "budget_threshold"
)

// NotificationEvent is the boundary object handed to the external
// notification dispatcher. The core guarantees at-most-one logical
// emission per DedupeKey within its cool-down window; delivery is the
// boundary's problem.
type NotificationEvent struct {
	ID                string            `json:"id"`
	RecipientUserID   string            `json:"recipient_user_id"`
	Kind              NotificationKind  `json:"kind"`
	Title             string            `json:"title"`
	Message           string            `json:"message"`
	RelatedEntityType string            `json:"related_entity_type,omitempty"`
	RelatedEntityID   string            `json:"related_entity_id,omitempty"`
	DedupeKey         string            `json:"dedupe_key"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}
