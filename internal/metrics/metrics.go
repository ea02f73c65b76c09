// Package metrics exports recommendation pipeline metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter owns the registry and collectors for the recommendation pipeline.
type Exporter struct {
	registry *prometheus.Registry

	embedLatency  *prometheus.HistogramVec
	searchLatency prometheus.Histogram
	searchResults prometheus.Histogram

	subQueries       *prometheus.CounterVec
	predictRequests  *prometheus.CounterVec
	synthesisContext *prometheus.CounterVec
}

// Config configures the metrics exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a metrics exporter with all collectors registered.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.embedLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "booksync",
			Subsystem: "ai",
			Name:      "embed_latency_seconds",
			Help:      "Embedding request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.searchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "booksync",
			Subsystem: "search",
			Name:      "latency_seconds",
			Help:      "End-to-end similarity search latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "booksync",
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	e.subQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksync",
			Subsystem: "recommend",
			Name:      "sub_queries_total",
			Help:      "Total number of fan-out sub-queries",
		},
		[]string{"source", "status"},
	)

	e.predictRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksync",
			Subsystem: "api",
			Name:      "predict_requests_total",
			Help:      "Total number of predict requests",
		},
		[]string{"status"},
	)

	e.synthesisContext = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksync",
			Subsystem: "ai",
			Name:      "synthesis_context_total",
			Help:      "Synthesis outcomes by context sufficiency",
		},
		[]string{"enough_context"},
	)

	registry.MustRegister(
		e.embedLatency,
		e.searchLatency,
		e.searchResults,
		e.subQueries,
		e.predictRequests,
		e.synthesisContext,
	)

	return e
}

// RecordEmbedLatency records one embedding request.
func (e *Exporter) RecordEmbedLatency(model string, latency time.Duration) {
	e.embedLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordSearch records one similarity search.
func (e *Exporter) RecordSearch(latency time.Duration, results int) {
	e.searchLatency.Observe(latency.Seconds())
	e.searchResults.Observe(float64(results))
}

// RecordSubQuery records one fan-out sub-query outcome.
func (e *Exporter) RecordSubQuery(source string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.subQueries.WithLabelValues(source, status).Inc()
}

// RecordPredictRequest records one predict request outcome.
func (e *Exporter) RecordPredictRequest(status string) {
	e.predictRequests.WithLabelValues(status).Inc()
}

// RecordSynthesis records one synthesis outcome.
func (e *Exporter) RecordSynthesis(enoughContext bool) {
	e.synthesisContext.WithLabelValues(strconv.FormatBool(enoughContext)).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
