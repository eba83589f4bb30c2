// Package metrics provides Prometheus metrics for the GLADE rating service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the GLADE service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for a rating ladder
	submissionsProcessed prometheus.Counter
	submissionsRejected  *prometheus.CounterVec
	ratingUpdates        prometheus.Counter
	volatilityStuck      prometheus.Counter

	// Recalculation Metrics
	recalcRuns     prometheus.Counter
	recalcReplayed prometheus.Counter
	recalcDuration prometheus.Histogram

	// Operational Health Metrics
	playersTracked prometheus.Gauge
	tenantsTracked prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store Metrics
	storeOpLatency *prometheus.HistogramVec
	storeErrors    prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "glade",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Register on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.submissionsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_processed_total",
		Help:      "Total number of score submissions applied to the ladder",
	})

	m.submissionsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_rejected_total",
			Help:      "Total number of score submissions rejected, by reason",
		},
		[]string{"reason"},
	)

	m.ratingUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_updates_total",
		Help:      "Total number of per-player Glicko-2 updates produced",
	})

	m.volatilityStuck = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "volatility_nonconverged_total",
		Help:      "Volatility solver runs that hit the iteration cap and kept the previous value",
	})

	m.recalcRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculations_total",
		Help:      "Total number of full tenant recalculations completed",
	})

	m.recalcReplayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculation_scores_replayed_total",
		Help:      "Total number of historical scores replayed during recalculations",
	})

	m.recalcDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalculation_duration_milliseconds",
		Help:      "Histogram of full tenant recalculation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Number of rated players across all tenants",
	})

	m.tenantsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tenants_tracked",
		Help:      "Number of tenants with at least one rated player",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.storeOpLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operation_latency_milliseconds",
			Help:      "Store operation latency in milliseconds, by operation",
			Buckets:   m.histogramBuckets,
		},
		[]string{"operation"},
	)

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of store operation failures",
	})
}

// Package-level helpers that record on the global manager.

// RecordSubmissionProcessed increments the processed submission counter.
func RecordSubmissionProcessed() {
	globalManager.submissionsProcessed.Inc()
}

// RecordSubmissionRejected increments the rejected submission counter for a reason.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordRatingUpdate increments the per-player update counter.
func RecordRatingUpdate() {
	globalManager.ratingUpdates.Inc()
}

// RecordVolatilityNonConvergence counts a volatility solver that hit its cap.
func RecordVolatilityNonConvergence() {
	globalManager.volatilityStuck.Inc()
}

// RecordRecalculation records one completed recalculation with its replay size and duration.
func RecordRecalculation(replayed int, durationMs float64) {
	globalManager.recalcRuns.Inc()
	globalManager.recalcReplayed.Add(float64(replayed))
	globalManager.recalcDuration.Observe(durationMs)
}

// UpdatePlayersTracked sets the rated player gauge.
func UpdatePlayersTracked(count int) {
	globalManager.playersTracked.Set(float64(count))
}

// UpdateTenantsTracked sets the tenant gauge.
func UpdateTenantsTracked(count int) {
	globalManager.tenantsTracked.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordStoreOperation records the latency of one store operation.
func RecordStoreOperation(operation string, durationMs float64) {
	globalManager.storeOpLatency.WithLabelValues(operation).Observe(durationMs)
}

// RecordStoreError counts a store operation failure.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler returns an HTTP handler serving the custom registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
