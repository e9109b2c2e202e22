package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MATCHCORE_CONFIG is set
//  3. env (prefix MATCHCORE_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MATCHCORE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: MATCHCORE_ADDR, MATCHCORE_OUTBOX_SIZE, ...
	// Map env keys like MATCHCORE_OUTBOX_SIZE -> outbox_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MATCHCORE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matchcore_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.HighScoreThreshold <= 0 || cfg.HighScoreThreshold > 100 {
		return nil, errors.New("high_score_threshold must be in (0,100]")
	}
	if cfg.MinSampleSize < 1 {
		return nil, errors.New("min_sample_size must be positive")
	}
	return &cfg, nil
}
