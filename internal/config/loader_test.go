package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/hirewire/matchcore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 85.0)
				convey.So(cfg.MinSampleSize, convey.ShouldEqual, 30)
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHCORE_ADDR", ":8080")
			_ = os.Setenv("MATCHCORE_HIGH_SCORE_THRESHOLD", "90")
			_ = os.Setenv("MATCHCORE_MIN_SAMPLE_SIZE", "50")
			_ = os.Setenv("MATCHCORE_OUTBOX_SIZE", "5000")
			_ = os.Setenv("MATCHCORE_SHARD_COUNT", "16")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 90.0)
				convey.So(cfg.MinSampleSize, convey.ShouldEqual, 50)
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 5000)
				convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
high_score_threshold: 80
cool_down_hours: 12
dispatch_worker_count: 6
score_caps:
  skill: 30
  culture: 15
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 80.0)
				convey.So(cfg.CoolDownHours, convey.ShouldEqual, 12)
				convey.So(cfg.DispatchWorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.ScoreCaps["skill"], convey.ShouldEqual, 30.0)
				convey.So(cfg.ScoreCaps["culture"], convey.ShouldEqual, 15.0)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
high_score_threshold: 80
cool_down_hours: 12
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHCORE_CONFIG", tmpFile)
			_ = os.Setenv("MATCHCORE_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")             // Overridden by env
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 80.0)  // From file
				convey.So(cfg.CoolDownHours, convey.ShouldEqual, 12)         // From file
				convey.So(cfg.MinSampleSize, convey.ShouldEqual, 30)         // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MATCHCORE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MATCHCORE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the threshold is out of range", func() {
			_ = os.Setenv("MATCHCORE_HIGH_SCORE_THRESHOLD", "150")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "high_score_threshold")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the minimum sample size is not positive", func() {
			_ = os.Setenv("MATCHCORE_MIN_SAMPLE_SIZE", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "min_sample_size")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9090"
shard_count: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")             // From file
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)             // From file
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 85.0)  // From defaults
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 10_000)        // From defaults
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MATCHCORE_CONFIG",
		"MATCHCORE_ADDR",
		"MATCHCORE_HIGH_SCORE_THRESHOLD",
		"MATCHCORE_MIN_SAMPLE_SIZE",
		"MATCHCORE_Z_THRESHOLD",
		"MATCHCORE_COOL_DOWN_HOURS",
		"MATCHCORE_OUTBOX_SIZE",
		"MATCHCORE_DISPATCH_WORKER_COUNT",
		"MATCHCORE_SHARD_COUNT",
		"MATCHCORE_MAX_LIST_LIMIT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchcore-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
