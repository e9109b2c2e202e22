package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			registryOpt := WithPrometheusRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording scoring metrics", func() {
			Convey("Then it should record scored matches", func() {
				So(func() {
					RecordMatchScored()
					RecordMatchScored()
					RecordScoringLatency(12.5)
					RecordHighScoreAlert()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording outcome metrics", func() {
			Convey("Then it should record outcomes and conflicts", func() {
				So(func() {
					RecordOutcomeSet("hired")
					RecordOutcomeSet("rejected")
					RecordOutcomeConflict()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording notification metrics", func() {
			Convey("Then it should record emissions and suppressions", func() {
				So(func() {
					RecordNotificationEmitted()
					RecordNotificationSuppressed()
					RecordDispatchLatency(3.2)
					RecordDispatchError()
					UpdateOutboxSize(10)
					UpdateOutboxCapacity(10_000)
					UpdateOutboxUtilization(0.001)
					UpdateDispatchWorkerCount(8)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording experiment metrics", func() {
			Convey("Then it should record evaluations and completions", func() {
				So(func() {
					RecordExperimentEvaluated()
					RecordExperimentCompleted()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording repository metrics", func() {
			Convey("Then it should record store activity", func() {
				So(func() {
					UpdateRepositoryShardCount(8)
					UpdateRepositoryRecordsTotal(100)
					RecordRepositoryWriteLatency(0.4)
					RecordRepositoryQueryLatency(1.1)
					RecordAnalyticsDuration(5.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording realtime metrics", func() {
			Convey("Then it should record hub activity", func() {
				So(func() {
					UpdateRealtimeSubscribers(3)
					RecordRealtimePublish()
					RecordRealtimeDropped()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			Convey("Then it should record request activity", func() {
				So(func() {
					RecordHTTPRequest("/matches", "GET", "200")
					RecordHTTPRequestDuration("/matches", "GET", "200", 2.5)
					RecordErrorByComponent("api", "bad_request")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(42)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should be the custom registry, non-nil", func() {
				So(registry, ShouldNotBeNil)
			})
		})
	})
}
