// Package metrics provides Prometheus metrics for the platecheck service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Pipeline
	imagesProcessed  prometheus.Counter
	imagesFailed     prometheus.Counter
	outcomes         *prometheus.CounterVec
	consistency      *prometheus.CounterVec
	vehicleVerdicts  *prometheus.CounterVec
	pipelineLatency  prometheus.Histogram
	historyRecords   prometheus.Gauge
	batchesSubmitted prometheus.Counter
	batchesDuplicate prometheus.Counter
	batchesCompleted prometheus.Counter

	// Upstream providers
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "platecheck",
		subsystem:      "pipeline",
		latencyBuckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.imagesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "images_processed_total",
		Help:      "Total number of images that produced a comparison record",
	})
	m.imagesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "images_failed_total",
		Help:      "Images whose every recognition source failed",
	})
	m.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcomes_total",
		Help:      "Recognition outcomes by source and status",
	}, []string{"source", "status"})
	m.consistency = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "consistency_total",
		Help:      "Reconciliation verdicts by consistency value",
	}, []string{"consistency"})
	m.vehicleVerdicts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vehicle_detected_total",
		Help:      "Vehicle detection consensus by result",
	}, []string{"detected"})
	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "image_latency_ms",
		Help:      "End-to-end latency of one image pipeline in milliseconds",
		Buckets:   m.latencyBuckets,
	})
	m.historyRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records",
		Help:      "Number of records held in the history store",
	})
	m.batchesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_submitted_total",
		Help:      "Asynchronous batches accepted",
	})
	m.batchesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_duplicate_total",
		Help:      "Batch submissions rejected as duplicates",
	})
	m.batchesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_completed_total",
		Help:      "Asynchronous batches fully processed",
	})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "latency_ms",
		Help:      "Latency of upstream provider calls in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"provider"})
	m.upstreamErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "errors_total",
		Help:      "Failed upstream provider calls",
	}, []string{"provider"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Current number of queued batch jobs",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Maximum number of queued batch jobs",
	})
	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "rejected_total",
		Help:      "Batch jobs rejected by the queue",
	}, []string{"reason"})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "workers",
		Help:      "Number of batch workers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "HTTP responses with status >= 400 by endpoint and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})
}

// RecordImageProcessed counts a completed image pipeline and its latency.
func RecordImageProcessed(latencyMs float64) {
	globalManager.imagesProcessed.Inc()
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordImageFailed counts an image whose every source failed.
func RecordImageFailed() {
	globalManager.imagesFailed.Inc()
}

// RecordOutcome counts one recognition outcome.
func RecordOutcome(source, status string) {
	globalManager.outcomes.WithLabelValues(source, status).Inc()
}

// RecordConsistency counts one reconciliation verdict.
func RecordConsistency(consistency string) {
	globalManager.consistency.WithLabelValues(consistency).Inc()
}

// RecordVehicleVerdict counts the vehicle consensus of one image.
func RecordVehicleVerdict(detected bool) {
	label := "false"
	if detected {
		label = "true"
	}
	globalManager.vehicleVerdicts.WithLabelValues(label).Inc()
}

// UpdateHistoryRecords sets the history size.
func UpdateHistoryRecords(count int) {
	globalManager.historyRecords.Set(float64(count))
}

// RecordBatchSubmitted counts an accepted batch.
func RecordBatchSubmitted() {
	globalManager.batchesSubmitted.Inc()
}

// RecordBatchDuplicate counts a duplicate batch submission.
func RecordBatchDuplicate() {
	globalManager.batchesDuplicate.Inc()
}

// RecordBatchCompleted counts a finished batch.
func RecordBatchCompleted() {
	globalManager.batchesCompleted.Inc()
}

// RecordUpstreamCall records the latency of one provider call and,
// when failed is true, an upstream error.
func RecordUpstreamCall(provider string, latencyMs float64, failed bool) {
	globalManager.upstreamLatency.WithLabelValues(provider).Observe(latencyMs)
	if failed {
		globalManager.upstreamErrors.WithLabelValues(provider).Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a rejected enqueue by reason.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
