package ucb

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the dispatch path and the
// resilience-wrapped remote-call path. All record methods are nil-safe so a
// connector without metrics pays only a nil check.
type MetricsCollector struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	remoteTotal    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	remoteInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	circuitBreakerState  *prometheus.GaugeVec
	rateLimiterRemaining *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		dispatchTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_dispatch_requests_total",
				Help: "Total number of inbound requests dispatched",
			},
			[]string{"method", "path", "status_code"},
		),
		dispatchDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ucb_dispatch_duration_seconds",
				Help:    "Duration of inbound dispatch in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		remoteTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_remote_requests_total",
				Help: "Total number of outbound remote calls",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		remoteDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ucb_remote_request_duration_seconds",
				Help:    "Duration of outbound remote calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		remoteInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ucb_remote_requests_in_flight",
				Help: "Number of outbound remote calls currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_remote_retries_total",
				Help: "Total number of outbound retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ucb_circuit_breaker_state",
				Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		rateLimiterRemaining: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ucb_rate_limiter_remaining",
				Help: "Remaining calls in the current rate limit window",
			},
			[]string{"name"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ucb_cache_size",
				Help: "Current number of entries in the response cache",
			},
			[]string{"name"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ucb_errors_total",
				Help: "Total number of typed errors by code",
			},
			[]string{"code"},
		),
	}
}

// RecordDispatch records one inbound dispatch outcome.
func (mc *MetricsCollector) RecordDispatch(method, path string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.dispatchTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	mc.dispatchDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRemote records one outbound call outcome.
func (mc *MetricsCollector) RecordRemote(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.remoteTotal.WithLabelValues(method, strconv.Itoa(statusCode), endpoint).Inc()
	mc.remoteDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRemoteStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRemoteStart(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.remoteInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRemoteEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRemoteEnd(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.remoteInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRetry increments the retry counter for an attempt.
func (mc *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCircuitBreakerState sets the breaker state gauge.
func (mc *MetricsCollector) RecordCircuitBreakerState(state CircuitState) {
	if mc == nil {
		return
	}
	mc.circuitBreakerState.WithLabelValues("default").Set(float64(state))
}

// RecordRateLimiterRemaining sets the remaining-calls gauge.
func (mc *MetricsCollector) RecordRateLimiterRemaining(remaining int) {
	if mc == nil {
		return
	}
	mc.rateLimiterRemaining.WithLabelValues("default").Set(float64(remaining))
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheSize sets the cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues("default").Set(float64(size))
}

// RecordError increments the error counter for a code.
func (mc *MetricsCollector) RecordError(code string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(code).Inc()
}
