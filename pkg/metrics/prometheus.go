// Package metrics provides Prometheus metrics for the gate director.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Score buckets cover the 0..100 similarity range.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the gate director.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Assignment pipeline
	assignments        *prometheus.CounterVec
	assignmentDuration prometheus.Histogram
	assignmentAttempts prometheus.Histogram
	matchScore         prometheus.Histogram
	exactMatches       prometheus.Counter
	groundWait         prometheus.Histogram
	confirmations      *prometheus.CounterVec
	notifications      *prometheus.CounterVec
	lastResultUnix     prometheus.Gauge

	// Menu surface
	menuClicks    *prometheus.CounterVec
	menuRefreshes prometheus.Counter

	// Catalog
	catalogWalks       *prometheus.CounterVec
	catalogWalkSeconds prometheus.Histogram
	catalogPositions   *prometheus.GaugeVec
	catalogCache       *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueDuplicates    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gatedirector",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counterVec := func(name, help string, lbls ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lbls)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: buckets,
		})
	}

	m.assignments = counterVec("assignments_total", "Assignment requests by final outcome", "outcome")
	m.assignmentDuration = histogram("assignment_duration_seconds", "Time from dequeue to final outcome", []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120})
	m.assignmentAttempts = histogram("assignment_attempts", "Navigation attempts used per assignment", []float64{1, 2, 3, 4, 5})
	m.matchScore = histogram("match_score", "Best match score per assignment", scoreBuckets)
	m.exactMatches = counter("exact_matches_total", "Assignments resolved by exact catalog lookup")
	m.groundWait = histogram("ground_wait_seconds", "Time spent waiting for ground contact", []float64{0, 1, 5, 30, 60, 300, 900, 1800})
	m.confirmations = counterVec("confirmations_total", "Confirmation surface verdicts", "verdict")
	m.notifications = counterVec("notifications_total", "Assignment notification calls by status", "status")
	m.lastResultUnix = gauge("last_result_timestamp_seconds", "Unix time of the last completed assignment")

	m.menuClicks = counterVec("menu_clicks_total", "Menu clicks by observed result", "result")
	m.menuRefreshes = counter("menu_refreshes_total", "Menu refresh signals issued")

	m.catalogWalks = counterVec("catalog_walks_total", "Full menu walks by result", "result")
	m.catalogWalkSeconds = histogram("catalog_walk_duration_seconds", "Duration of full menu walks", []float64{5, 10, 20, 30, 60, 120, 300})
	m.catalogPositions = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("catalog_positions"),
		Help: "Known positions per airport", ConstLabels: labels,
	}, []string{"airport"})
	m.catalogCache = counterVec("catalog_cache_total", "Catalog cache lookups", "result")

	m.queueSize = gauge("queue_size", "Current number of pending requests")
	m.queueCapacity = gauge("queue_capacity", "Maximum number of pending requests")
	m.queueEnqueue = counter("queue_enqueue_total", "Requests enqueued")
	m.queueDequeue = counter("queue_dequeue_total", "Requests dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Requests rejected by the queue")
	m.queueDuplicates = counter("queue_duplicates_total", "Requests dropped because an identical one is pending")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", ConstLabels: labels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = counterVec("errors_total", "Errors by component and kind", "component", "kind")

	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
}

// RecordAssignment counts a finished assignment and its duration.
func RecordAssignment(outcome string, d time.Duration, attempts int) {
	globalManager.assignments.WithLabelValues(outcome).Inc()
	globalManager.assignmentDuration.Observe(d.Seconds())
	globalManager.assignmentAttempts.Observe(float64(attempts))
	globalManager.lastResultUnix.SetToCurrentTime()
}

// RecordMatch observes the best match score.
func RecordMatch(score float64, exact bool) {
	globalManager.matchScore.Observe(score)
	if exact {
		globalManager.exactMatches.Inc()
	}
}

// RecordGroundWait observes a ground-contact wait.
func RecordGroundWait(d time.Duration) {
	globalManager.groundWait.Observe(d.Seconds())
}

// RecordConfirmation counts a confirmation verdict.
func RecordConfirmation(verdict string) {
	globalManager.confirmations.WithLabelValues(verdict).Inc()
}

// RecordNotification counts a notification call.
func RecordNotification(status string) {
	globalManager.notifications.WithLabelValues(status).Inc()
}

// RecordMenuClick counts a click and whether the menu changed.
func RecordMenuClick(result string) {
	globalManager.menuClicks.WithLabelValues(result).Inc()
}

// RecordMenuRefresh counts a refresh signal.
func RecordMenuRefresh() {
	globalManager.menuRefreshes.Inc()
}

// RecordCatalogWalk counts a walk and observes its duration.
func RecordCatalogWalk(result string, d time.Duration) {
	globalManager.catalogWalks.WithLabelValues(result).Inc()
	globalManager.catalogWalkSeconds.Observe(d.Seconds())
}

// UpdateCatalogPositions sets the number of positions known for an airport.
func UpdateCatalogPositions(airport string, n int) {
	globalManager.catalogPositions.WithLabelValues(airport).Set(float64(n))
}

// RecordCatalogCache counts a cache hit or miss.
func RecordCatalogCache(hit bool) {
	if hit {
		globalManager.catalogCache.WithLabelValues("hit").Inc()
		return
	}
	globalManager.catalogCache.WithLabelValues("miss").Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueDuplicate increments the duplicate request counter.
func RecordQueueDuplicate() {
	globalManager.queueDuplicates.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
