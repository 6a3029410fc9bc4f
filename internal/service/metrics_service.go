package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the metric
// computation pipeline. It is passed explicitly into the orchestrator, the
// cache service and the LRS clients instead of living in a global registry.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency  prometheus.Observer
	cacheWrite    prometheus.Observer
	cacheHitRatio prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	computationDuration *prometheus.HistogramVec
	computationErrors   *prometheus.CounterVec
	lrsRequestDuration  *prometheus.HistogramVec
	lrsErrors           *prometheus.CounterVec
	breakerState        prometheus.Gauge
	instanceHealth      *prometheus.GaugeVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers all collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	computationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metric_computation_duration_seconds",
		Help:    "Duration of metric computations",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric_id"})

	computationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metric_computation_errors_total",
		Help: "Total metric computation failures",
	}, []string{"metric_id"})

	lrsRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lrs_request_duration_seconds",
		Help:    "Duration of LRS HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"instance"})

	lrsErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lrs_errors_total",
		Help: "Total LRS request failures by category",
	}, []string{"category"})

	breakerState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lrs_circuit_breaker_state",
		Help: "Circuit breaker state guarding LRS calls (0 closed, 1 open, 2 half-open)",
	})

	instanceHealth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lrs_instance_healthy",
		Help: "Health of configured LRS instances (1 healthy, 0 unhealthy)",
	}, []string{"instance"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite,
		cacheHitRatio, cacheHits, cacheMisses, computationDuration, computationErrors,
		lrsRequestDuration, lrsErrors, breakerState, instanceHealth, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		computationDuration: computationDuration,
		computationErrors:   computationErrors,
		lrsRequestDuration:  lrsRequestDuration,
		lrsErrors:           lrsErrors,
		breakerState:        breakerState,
		instanceHealth:      instanceHealth,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit
// ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveComputation records the wall-clock duration of one metric
// computation, successful or not.
func (m *MetricsService) ObserveComputation(metricID string, duration time.Duration) {
	if m == nil {
		return
	}
	m.computationDuration.WithLabelValues(metricID).Observe(duration.Seconds())
}

// RecordComputationError counts a computation failure for the metric.
func (m *MetricsService) RecordComputationError(metricID string) {
	if m == nil {
		return
	}
	m.computationErrors.WithLabelValues(metricID).Inc()
}

// ObserveLRSRequest records the duration of one LRS page fetch.
func (m *MetricsService) ObserveLRSRequest(instanceID string, duration time.Duration) {
	if m == nil {
		return
	}
	m.lrsRequestDuration.WithLabelValues(instanceID).Observe(duration.Seconds())
}

// RecordLRSError counts an exhausted LRS request by error category.
func (m *MetricsService) RecordLRSError(category string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.lrsErrors.WithLabelValues(category).Inc()
}

// SetBreakerState publishes the circuit breaker state.
func (m *MetricsService) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.breakerState.Set(state)
}

// SetInstanceHealth publishes the outcome of an LRS health probe.
func (m *MetricsService) SetInstanceHealth(instanceID string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.instanceHealth.WithLabelValues(instanceID).Set(value)
}
