package config_test

import (
	"runtime"
	"testing"

	"github.com/hirewire/matchcore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 85.0)
			convey.So(cfg.MinSampleSize, convey.ShouldEqual, 30)
			convey.So(cfg.ZThreshold, convey.ShouldEqual, 1.96)
			convey.So(cfg.CoolDownHours, convey.ShouldEqual, 24)
			convey.So(cfg.OutboxSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.DispatchWorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.TechnicalWeight, convey.ShouldEqual, 40.0)
			convey.So(cfg.CultureWeight, convey.ShouldEqual, 30.0)
			convey.So(cfg.WellbeingWeight, convey.ShouldEqual, 30.0)
		})
	})
}
