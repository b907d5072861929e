// Package metrics provides Prometheus metrics for the talentcheck service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	registry         prometheus.Registerer

	// Pipeline outcomes
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	compositeStatus  *prometheus.CounterVec
	compositeScore   prometheus.Histogram
	runsInFlight     prometheus.Gauge
	consentRejected  prometheus.Counter
	runsCancelled    prometheus.Counter
	progressTracked  prometheus.Gauge
	duplicateSubmits prometheus.Counter

	// Stages
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec

	// Analytics
	integrityRisk    *prometheus.CounterVec
	integrityScore   prometheus.Histogram
	performanceTiers *prometheus.CounterVec
	technicalScore   prometheus.Histogram

	// Notification
	notifications *prometheus.CounterVec

	// Persistence
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storeRecords prometheus.Gauge

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	workerBusy    prometheus.Gauge

	// Batch
	batchItems *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentcheck",
		subsystem:        "assessment",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		scoreBuckets:     []float64{10, 20, 30, 40, 50, 55, 60, 70, 80, 85, 90, 95, 100},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.runsTotal = m.counterVec("pipeline_runs_total", "Pipeline runs by processing status (complete, partial, failed, error)", "status")
	m.runDuration = m.histogram("pipeline_run_duration_milliseconds", "End-to-end pipeline duration in milliseconds", m.histogramBuckets)
	m.compositeStatus = m.counterVec("composite_status_total", "Composite verdicts by overall status", "status")
	m.compositeScore = m.histogram("composite_score", "Distribution of composite scores", m.scoreBuckets)
	m.runsInFlight = m.gauge("pipeline_runs_in_flight", "Pipeline runs currently executing")
	m.consentRejected = m.counter("consent_denied_total", "Runs refused because consent was not granted")
	m.runsCancelled = m.counter("pipeline_cancelled_total", "Runs aborted by cancellation")
	m.progressTracked = m.gauge("progress_entries", "Progress entries currently retained")
	m.duplicateSubmits = m.counter("duplicate_submissions_total", "Submissions rejected because the assessment is already in flight")

	m.stageDuration = m.histogramVec("stage_duration_milliseconds", "Stage latency in milliseconds", m.histogramBuckets, "stage")
	m.stageFailures = m.counterVec("stage_failures_total", "Recoverable stage failures", "stage")

	m.integrityRisk = m.counterVec("integrity_risk_total", "Integrity verdicts by risk tier", "risk")
	m.integrityScore = m.histogram("integrity_score", "Distribution of composite integrity scores", m.scoreBuckets)
	m.performanceTiers = m.counterVec("performance_tier_total", "Performance verdicts by tier", "tier")
	m.technicalScore = m.histogram("technical_score", "Distribution of movement technical scores", m.scoreBuckets)

	m.notifications = m.counterVec("notifications_total", "Recruitment notifications by result (sent, failed, skipped, disabled)", "result")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Verdict store latency in milliseconds", m.histogramBuckets, "op")
	m.storeErrors = m.counterVec("store_errors_total", "Verdict store errors", "op")
	m.storeRecords = m.gauge("store_records", "Assessment results held by the verdict store")

	m.queueSize = m.gauge("queue_size", "Current number of queued assessment jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued assessment jobs")
	m.queueRejected = m.counterVec("queue_rejected_total", "Jobs rejected at enqueue", "reason")
	m.workerCount = m.gauge("worker_count", "Number of pipeline workers")
	m.workerBusy = m.gauge("worker_busy", "Number of workers currently running a pipeline")

	m.batchItems = m.counterVec("batch_items_total", "Batch items by result (ok, failed)", "result")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// Pipeline Metrics Functions.

// RecordRun records a finished pipeline run by processing status.
func RecordRun(status string, durationMs float64) {
	globalManager.runsTotal.WithLabelValues(status).Inc()
	globalManager.runDuration.Observe(durationMs)
}

// RecordCompositeVerdict records the overall status and composite score.
func RecordCompositeVerdict(status string, score float64) {
	globalManager.compositeStatus.WithLabelValues(status).Inc()
	globalManager.compositeScore.Observe(score)
}

// IncRunsInFlight increments the in-flight gauge.
func IncRunsInFlight() { globalManager.runsInFlight.Inc() }

// DecRunsInFlight decrements the in-flight gauge.
func DecRunsInFlight() { globalManager.runsInFlight.Dec() }

// RecordConsentDenied counts a run refused by the consent gate.
func RecordConsentDenied() { globalManager.consentRejected.Inc() }

// RecordCancelled counts a cancelled run.
func RecordCancelled() { globalManager.runsCancelled.Inc() }

// UpdateProgressEntries sets the number of retained progress entries.
func UpdateProgressEntries(n int) { globalManager.progressTracked.Set(float64(n)) }

// RecordDuplicateSubmission counts a rejected duplicate submission.
func RecordDuplicateSubmission() { globalManager.duplicateSubmits.Inc() }

// Stage Metrics Functions.

// RecordStageLatency records how long a stage took.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(latencyMs)
}

// RecordStageFailure counts a recoverable stage failure.
func RecordStageFailure(stage string) {
	globalManager.stageFailures.WithLabelValues(stage).Inc()
}

// Analytic Metrics Functions.

// RecordIntegrity records an integrity verdict.
func RecordIntegrity(risk string, score float64) {
	globalManager.integrityRisk.WithLabelValues(risk).Inc()
	globalManager.integrityScore.Observe(score)
}

// RecordPerformanceTier records a performance tier.
func RecordPerformanceTier(tier string) {
	globalManager.performanceTiers.WithLabelValues(tier).Inc()
}

// RecordTechnicalScore records a movement technical score.
func RecordTechnicalScore(score float64) {
	globalManager.technicalScore.Observe(score)
}

// RecordNotification records a notification result: sent, failed or skipped.
func RecordNotification(result string) {
	globalManager.notifications.WithLabelValues(result).Inc()
}

// Store Metrics Functions.

// RecordStoreLatency records verdict store latency for an operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a verdict store error.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateStoreRecords sets the number of stored assessment results.
func UpdateStoreRecords(n int) { globalManager.storeRecords.Set(float64(n)) }

// Queue and Worker Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a job the queue refused or dropped.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// IncWorkerBusy marks a worker busy.
func IncWorkerBusy() { globalManager.workerBusy.Inc() }

// DecWorkerBusy marks a worker idle.
func DecWorkerBusy() { globalManager.workerBusy.Dec() }

// RecordBatchItem records a batch item result: ok or failed.
func RecordBatchItem(result string) {
	globalManager.batchItems.WithLabelValues(result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the allocated heap in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
