// Package metrics provides Prometheus metrics for the dam dice results service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	fetchBuckets     []float64
	registry         prometheus.Registerer

	// Ingestion
	feedFetches      *prometheus.CounterVec
	feedFetchLatency prometheus.Histogram
	feedBytes        prometheus.Gauge
	rowsIngested     prometheus.Counter

	// Transformation
	rowsRejected         *prometheus.CounterVec
	duplicateSubmissions prometheus.Counter
	pipelineRuns         *prometheus.CounterVec
	pipelineLatency      prometheus.Histogram
	pipelineLastRunUnix  prometheus.Gauge
	recordsByCategory    *prometheus.GaugeVec
	racesByCategory      *prometheus.GaugeVec
	paddlersByCategory   *prometheus.GaugeVec

	// Result cache
	cacheLookups *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Process
	systemMemoryBytes *prometheus.GaugeVec
	goroutines        prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "damdice",
		subsystem:        "results",
		latencyBuckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		fetchBuckets:     []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.feedFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_fetches_total",
		Help:      "Spreadsheet feed fetches by outcome",
	}, []string{"outcome"})

	m.feedFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_fetch_latency_milliseconds",
		Help:      "Spreadsheet feed fetch latency in milliseconds",
		Buckets:   m.fetchBuckets,
	})

	m.feedBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_bytes",
		Help:      "Size of the last fetched feed snapshot in bytes",
	})

	m.rowsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_ingested_total",
		Help:      "Submission rows read from the feed",
	})

	m.rowsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_rejected_total",
		Help:      "Submission rows skipped by the transformer, by error kind",
	}, []string{"kind"})

	m.duplicateSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Submissions collapsed because the paddler already has a faster time for the race",
	})

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by outcome",
	}, []string{"outcome"})

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_latency_milliseconds",
		Help:      "Transform latency in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.pipelineLastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_last_run_unix",
		Help:      "Unix timestamp of the last successful pipeline run",
	})

	m.recordsByCategory = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "race_records",
		Help:      "Race records in the last run, by category",
	}, []string{"category"})

	m.racesByCategory = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races",
		Help:      "Distinct race dates in the last run, by category",
	}, []string{"category"})

	m.paddlersByCategory = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "paddlers",
		Help:      "Distinct paddlers in the last run, by category",
	}, []string{"category"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by outcome (hit, miss, shared, unchanged)",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryBytes = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Go runtime memory by kind (alloc, sys)",
	}, []string{"kind"})

	m.goroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of live goroutines",
	})
}

// RecordFeedFetch counts a feed fetch with outcome "ok" or "error" and its latency.
func RecordFeedFetch(outcome string, latencyMs float64) {
	globalManager.feedFetches.WithLabelValues(outcome).Inc()
	globalManager.feedFetchLatency.Observe(latencyMs)
}

// UpdateFeedBytes sets the size of the last snapshot.
func UpdateFeedBytes(n int) {
	globalManager.feedBytes.Set(float64(n))
}

// RecordRowsIngested adds n rows read from the feed.
func RecordRowsIngested(n int) {
	globalManager.rowsIngested.Add(float64(n))
}

// RecordRowRejected counts one skipped row of the given kind.
func RecordRowRejected(kind string) {
	globalManager.rowsRejected.WithLabelValues(kind).Inc()
}

// RecordDuplicateSubmission counts one collapsed duplicate.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// RecordPipelineRun counts a run with outcome "ok" or "error" and its latency.
func RecordPipelineRun(outcome string, latencyMs float64) {
	globalManager.pipelineRuns.WithLabelValues(outcome).Inc()
	globalManager.pipelineLatency.Observe(latencyMs)
}

// UpdatePipelineLastRun sets the last successful run time.
func UpdatePipelineLastRun(unix int64) {
	globalManager.pipelineLastRunUnix.Set(float64(unix))
}

// UpdateCategoryCounts sets record, race and paddler gauges for a category.
func UpdateCategoryCounts(category string, records, races, paddlers int) {
	globalManager.recordsByCategory.WithLabelValues(category).Set(float64(records))
	globalManager.racesByCategory.WithLabelValues(category).Set(float64(races))
	globalManager.paddlersByCategory.WithLabelValues(category).Set(float64(paddlers))
}

// RecordCacheLookup counts a result cache lookup.
func RecordCacheLookup(outcome string) {
	globalManager.cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemory sets the allocated and obtained-from-OS byte gauges.
func UpdateSystemMemory(alloc, sys uint64) {
	globalManager.systemMemoryBytes.WithLabelValues("alloc").Set(float64(alloc))
	globalManager.systemMemoryBytes.WithLabelValues("sys").Set(float64(sys))
}

// UpdateGoroutineCount sets the goroutine gauge.
func UpdateGoroutineCount(n int) {
	globalManager.goroutines.Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
