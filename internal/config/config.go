// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// HighScoreThreshold is the overall score at which a match alert fires.
	HighScoreThreshold float64 `koanf:"high_score_threshold"`

	// MinSampleSize is the per-variant minimum sends before an
	// experiment can reach significance.
	MinSampleSize int64 `koanf:"min_sample_size"`

	// ZThreshold is the significance threshold on the z statistic.
	ZThreshold float64 `koanf:"z_threshold"`

	// CoolDownHours is the dedupe window for experiment/budget-class
	// notifications.
	CoolDownHours int `koanf:"cool_down_hours"`

	// OutboxSize bounds the in-memory notification outbox.
	OutboxSize int `koanf:"outbox_size"`

	// DispatchWorkerCount sets the number of dispatch workers.
	DispatchWorkerCount int `koanf:"dispatch_worker_count"`

	// ShardCount configures the number of shards in the match store.
	ShardCount int `koanf:"shard_count"`

	// MaxListLimit caps GET /matches?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// ScoreCaps overrides per-sub-factor score caps by name: skill,
	// location, work_setting, salary, experience, org_size, culture,
	// wellbeing.
	ScoreCaps map[string]float64 `koanf:"score_caps"`

	// Default weight profile dimensions used when a tenant has none.
	TechnicalWeight float64 `koanf:"technical_weight"`
	CultureWeight   float64 `koanf:"culture_weight"`
	WellbeingWeight float64 `koanf:"wellbeing_weight"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		HighScoreThreshold:  85,
		MinSampleSize:       30,
		ZThreshold:          1.96,
		CoolDownHours:       24,
		OutboxSize:          10_000,
		DispatchWorkerCount: runtime.NumCPU() * 2,
		ShardCount:          8,
		MaxListLimit:        100,
		TechnicalWeight:     40,
		CultureWeight:       30,
		WellbeingWeight:     30,
	}
}
