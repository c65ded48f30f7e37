// Package monitoring provides Prometheus metrics for the generation
// pipeline and its upstream services.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection. It registers onto
// its own registry so tests can build collectors side by side.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	generationAttempts *prometheus.CounterVec
	generationRetries  *prometheus.CounterVec
	retriesExhausted   *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &MetricsCollector{
		logger:   logger,
		registry: registry,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),

		generationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_generation_attempts_total",
				Help: "Generation attempts by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		generationRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_generation_retries_total",
				Help: "Retries triggered by a rejected first attempt",
			},
			[]string{"mode"},
		),
		retriesExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_generation_retries_exhausted_total",
				Help: "Generations that failed both attempts",
			},
			[]string{"mode"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Upstream service call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"service"},
		),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.generationAttempts,
		m.generationRetries,
		m.retriesExhausted,
		m.upstreamDuration,
	)
	return m
}

// Handler returns the scrape endpoint for this collector's registry.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *MetricsCollector) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
}

// GenerationAttempt counts one pipeline attempt.
func (m *MetricsCollector) GenerationAttempt(mode, outcome string) {
	m.generationAttempts.WithLabelValues(mode, outcome).Inc()
}

// GenerationRetry counts a triggered retry.
func (m *MetricsCollector) GenerationRetry(mode string) {
	m.generationRetries.WithLabelValues(mode).Inc()
}

// RetryExhausted counts a generation that failed both attempts.
func (m *MetricsCollector) RetryExhausted(mode string) {
	m.retriesExhausted.WithLabelValues(mode).Inc()
}

// ObserveUpstream records the latency of one upstream call.
func (m *MetricsCollector) ObserveUpstream(service string, duration time.Duration) {
	m.upstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}
