package stats_test

import (
	"testing"

	stats "github.com/hirewire/matchcore/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTwoProportionTest_Evaluate(t *testing.T) {
	Convey("Given a test with default thresholds", t, func() {
		test := stats.NewTwoProportionTest()

		Convey("When variant B clearly outperforms variant A", func() {
			// 40/100 opens vs 60/100 opens.
			result := test.Evaluate(0.40, 100, 0.60, 100)

			Convey("Then the difference is significant", func() {
				So(result.IsSignificant, ShouldBeTrue)
				So(result.ZScore, ShouldAlmostEqual, 2.8284, 0.001)
				So(result.Confidence, ShouldEqual, 95.0)
			})

			Convey("And B is the winner with a 50% lift", func() {
				So(result.AWins, ShouldBeFalse)
				So(result.Improvement, ShouldAlmostEqual, 50.0, 0.001)
			})
		})

		Convey("When the rates differ only slightly", func() {
			result := test.Evaluate(0.50, 200, 0.52, 200)

			Convey("Then the difference is not significant", func() {
				So(result.IsSignificant, ShouldBeFalse)
				So(result.Improvement, ShouldEqual, 0.0)
			})

			Convey("And the interpolated confidence stays below 95", func() {
				So(result.Confidence, ShouldBeLessThanOrEqualTo, 90.0)
				So(result.Confidence, ShouldBeGreaterThanOrEqualTo, 0.0)
			})
		})

		Convey("When either sample is below the minimum size", func() {
			result := test.Evaluate(1.0, 10, 0.0, 10)

			Convey("Then the result is the zero value, never significant", func() {
				So(result.IsSignificant, ShouldBeFalse)
				So(result.ZScore, ShouldEqual, 0.0)
				So(result.Confidence, ShouldEqual, 0.0)
			})
		})

		Convey("When both variants convert identically", func() {
			Convey("And both rates are zero", func() {
				result := test.Evaluate(0.0, 100, 0.0, 100)

				Convey("Then the degenerate standard error yields not significant", func() {
					So(result.IsSignificant, ShouldBeFalse)
					So(result.ZScore, ShouldEqual, 0.0)
				})
			})

			Convey("And both rates are one", func() {
				result := test.Evaluate(1.0, 100, 1.0, 100)

				Convey("Then the degenerate standard error yields not significant", func() {
					So(result.IsSignificant, ShouldBeFalse)
					So(result.ZScore, ShouldEqual, 0.0)
				})
			})
		})

		Convey("When variant A outperforms variant B", func() {
			result := test.Evaluate(0.60, 100, 0.40, 100)

			Convey("Then A wins with the same lift", func() {
				So(result.IsSignificant, ShouldBeTrue)
				So(result.AWins, ShouldBeTrue)
				So(result.Improvement, ShouldAlmostEqual, 50.0, 0.001)
			})
		})

		Convey("When the losing rate is zero", func() {
			result := test.Evaluate(0.0, 100, 0.30, 100)

			Convey("Then the lift is reported as zero rather than infinite", func() {
				So(result.IsSignificant, ShouldBeTrue)
				So(result.Improvement, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given a test with custom thresholds", t, func() {
		test := stats.NewTwoProportionTest(
			stats.WithMinSampleSize(5),
			stats.WithZThreshold(1.0),
		)

		Convey("When small samples carry a big difference", func() {
			result := test.Evaluate(0.2, 20, 0.7, 20)

			Convey("Then the relaxed thresholds allow significance", func() {
				So(result.IsSignificant, ShouldBeTrue)
				So(result.AWins, ShouldBeFalse)
			})
		})
	})
}
