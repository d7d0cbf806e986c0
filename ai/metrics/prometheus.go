// Package metrics provides Prometheus metrics export for search and QA.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports engine metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Search metrics
	searchLatency  *prometheus.HistogramVec
	searchRequests *prometheus.CounterVec
	searchResults  prometheus.Histogram

	// Query optimizer metrics
	optimizeRequests *prometheus.CounterVec

	// QA metrics
	qaLatency  *prometheus.HistogramVec
	qaRequests *prometheus.CounterVec

	// LLM token metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{
		registry: registry,
	}

	e.searchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "synvectordb",
			Subsystem: "search",
			Name:      "latency_seconds",
			Help:      "Semantic search latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"source", "optimized"},
	)

	e.searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synvectordb",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of semantic search requests",
		},
		[]string{"source", "status"},
	)

	e.searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "synvectordb",
			Subsystem: "search",
			Name:      "results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	e.optimizeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synvectordb",
			Subsystem: "optimizer",
			Name:      "requests_total",
			Help:      "Total number of query optimization attempts",
		},
		[]string{"status"},
	)

	e.qaLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "synvectordb",
			Subsystem: "qa",
			Name:      "latency_seconds",
			Help:      "Question answering latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"mode"},
	)

	e.qaRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synvectordb",
			Subsystem: "qa",
			Name:      "requests_total",
			Help:      "Total number of question answering requests",
		},
		[]string{"mode", "status"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synvectordb",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "kind"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "synvectordb",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	registry.MustRegister(
		e.searchLatency,
		e.searchRequests,
		e.searchResults,
		e.optimizeRequests,
		e.qaLatency,
		e.qaRequests,
		e.llmTokensUsed,
		e.llmLatency,
	)

	return e
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveSearch records one search request.
func (e *PrometheusExporter) ObserveSearch(source string, optimized bool, status string, duration time.Duration, results int) {
	optimizedLabel := "false"
	if optimized {
		optimizedLabel = "true"
	}
	e.searchLatency.WithLabelValues(source, optimizedLabel).Observe(duration.Seconds())
	e.searchRequests.WithLabelValues(source, status).Inc()
	e.searchResults.Observe(float64(results))
}

// ObserveOptimize records one query optimization attempt by outcome status.
func (e *PrometheusExporter) ObserveOptimize(status string) {
	e.optimizeRequests.WithLabelValues(status).Inc()
}

// ObserveQA records one question answering request.
func (e *PrometheusExporter) ObserveQA(mode, status string, duration time.Duration) {
	e.qaLatency.WithLabelValues(mode).Observe(duration.Seconds())
	e.qaRequests.WithLabelValues(mode, status).Inc()
}

// ObserveLLMCall records token usage and latency of one LLM call.
func (e *PrometheusExporter) ObserveLLMCall(model string, promptTokens, completionTokens int, duration time.Duration) {
	e.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	e.llmLatency.WithLabelValues(model).Observe(duration.Seconds())
}
