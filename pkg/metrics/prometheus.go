// Package metrics provides Prometheus metrics for the match decision core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring / tracking
	matchesScored   prometheus.Counter
	highScoreAlerts prometheus.Counter
	scoringLatency  prometheus.Histogram
	outcomesSet     *prometheus.CounterVec
	outcomeConflicts prometheus.Counter

	// Notification path
	notificationsEmitted    prometheus.Counter
	notificationsSuppressed prometheus.Counter
	dispatchLatency         prometheus.Histogram
	dispatchErrors          prometheus.Counter

	// Outbox / workers
	outboxSize          prometheus.Gauge
	outboxCapacity      prometheus.Gauge
	outboxUtilization   prometheus.Gauge
	dispatchWorkerCount prometheus.Gauge

	// Experiments
	experimentsEvaluated prometheus.Counter
	experimentsCompleted prometheus.Counter

	// Analytics
	analyticsRunDuration prometheus.Histogram

	// Repository
	repositoryShardCount   prometheus.Gauge
	repositoryRecordsTotal prometheus.Gauge
	repositoryWriteLatency prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram

	// Realtime hub
	realtimeSubscribers prometheus.Gauge
	realtimePublishes   prometheus.Counter
	realtimeDropped     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchcore",
		subsystem:        "decision",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.matchesScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_scored_total",
		Help:      "Total number of match records created by scoring runs",
	})
	m.highScoreAlerts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "high_score_alerts_total",
		Help:      "Total number of matches that crossed the high-score threshold",
	})
	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_ms",
		Help:      "Latency of one scoring run in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.outcomesSet = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcomes_set_total",
		Help:      "Terminal outcomes recorded, by outcome",
	}, []string{"outcome"})
	m.outcomeConflicts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcome_conflicts_total",
		Help:      "Rejected repeat terminal outcome transitions",
	})

	m.notificationsEmitted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_emitted_total",
		Help:      "Notification events emitted to the boundary",
	})
	m.notificationsSuppressed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_suppressed_total",
		Help:      "Notification events suppressed by the dedupe window",
	})
	m.dispatchLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_latency_ms",
		Help:      "Latency of handing one event to the delivery boundary",
		Buckets:   m.histogramBuckets,
	})
	m.dispatchErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_errors_total",
		Help:      "Errors returned by the delivery boundary",
	})

	m.outboxSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outbox_size",
		Help:      "Current number of events queued for dispatch",
	})
	m.outboxCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outbox_capacity",
		Help:      "Configured outbox capacity",
	})
	m.outboxUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outbox_utilization",
		Help:      "Outbox fill ratio between 0 and 1",
	})
	m.dispatchWorkerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_worker_count",
		Help:      "Number of dispatch workers",
	})

	m.experimentsEvaluated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "experiments_evaluated_total",
		Help:      "Experiment evaluation passes run",
	})
	m.experimentsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "experiments_completed_total",
		Help:      "Experiments completed with a declared winner",
	})

	m.analyticsRunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analytics_run_duration_ms",
		Help:      "Duration of one analytics aggregation in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryShardCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_shard_count",
		Help:      "Number of shards in the match store",
	})
	m.repositoryRecordsTotal = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_records_total",
		Help:      "Match records currently stored",
	})
	m.repositoryWriteLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_write_latency_ms",
		Help:      "Repository write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.repositoryQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_ms",
		Help:      "Repository query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.realtimeSubscribers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "realtime_subscribers",
		Help:      "Currently connected realtime subscribers",
	})
	m.realtimePublishes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "realtime_publishes_total",
		Help:      "Events published to the realtime hub",
	})
	m.realtimeDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "realtime_dropped_total",
		Help:      "Realtime events dropped because a subscriber was slow or absent",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Allocated heap bytes",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

// RecordMatchScored increments the scored-matches counter.
func RecordMatchScored() { globalManager.matchesScored.Inc() }

// RecordHighScoreAlert increments the high-score alert counter.
func RecordHighScoreAlert() { globalManager.highScoreAlerts.Inc() }

// RecordScoringLatency records one scoring run's latency.
func RecordScoringLatency(latencyMs float64) { globalManager.scoringLatency.Observe(latencyMs) }

// RecordOutcomeSet counts a terminal outcome by value.
func RecordOutcomeSet(outcome string) { globalManager.outcomesSet.WithLabelValues(outcome).Inc() }

// RecordOutcomeConflict counts a rejected repeat outcome transition.
func RecordOutcomeConflict() { globalManager.outcomeConflicts.Inc() }

// RecordNotificationEmitted counts an event inserted into the log.
func RecordNotificationEmitted() { globalManager.notificationsEmitted.Inc() }

// RecordNotificationSuppressed counts an event swallowed by dedupe.
func RecordNotificationSuppressed() { globalManager.notificationsSuppressed.Inc() }

// RecordDispatchLatency records one boundary hand-off latency.
func RecordDispatchLatency(latencyMs float64) { globalManager.dispatchLatency.Observe(latencyMs) }

// RecordDispatchError counts a delivery boundary error.
func RecordDispatchError() { globalManager.dispatchErrors.Inc() }

// UpdateOutboxSize sets the current outbox depth.
func UpdateOutboxSize(size int) { globalManager.outboxSize.Set(float64(size)) }

// UpdateOutboxCapacity sets the configured outbox capacity.
func UpdateOutboxCapacity(capacity int) { globalManager.outboxCapacity.Set(float64(capacity)) }

// UpdateOutboxUtilization sets the outbox fill ratio.
func UpdateOutboxUtilization(u float64) { globalManager.outboxUtilization.Set(u) }

// UpdateDispatchWorkerCount sets the dispatch worker gauge.
func UpdateDispatchWorkerCount(count int) { globalManager.dispatchWorkerCount.Set(float64(count)) }

// RecordExperimentEvaluated counts an evaluation pass.
func RecordExperimentEvaluated() { globalManager.experimentsEvaluated.Inc() }

// RecordExperimentCompleted counts a completed experiment.
func RecordExperimentCompleted() { globalManager.experimentsCompleted.Inc() }

// RecordAnalyticsDuration records one aggregation duration.
func RecordAnalyticsDuration(ms float64) { globalManager.analyticsRunDuration.Observe(ms) }

// UpdateRepositoryShardCount sets the shard count gauge.
func UpdateRepositoryShardCount(count int) { globalManager.repositoryShardCount.Set(float64(count)) }

// UpdateRepositoryRecordsTotal sets the stored record gauge.
func UpdateRepositoryRecordsTotal(count int) { globalManager.repositoryRecordsTotal.Set(float64(count)) }

// RecordRepositoryWriteLatency records a store write latency.
func RecordRepositoryWriteLatency(latencyMs float64) {
	globalManager.repositoryWriteLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records a store query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateRealtimeSubscribers sets the connected subscriber gauge.
func UpdateRealtimeSubscribers(count int) { globalManager.realtimeSubscribers.Set(float64(count)) }

// RecordRealtimePublish counts a hub publish.
func RecordRealtimePublish() { globalManager.realtimePublishes.Inc() }

// RecordRealtimeDropped counts a best-effort drop.
func RecordRealtimeDropped() { globalManager.realtimeDropped.Inc() }

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
