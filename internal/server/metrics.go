package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the route pattern rather than the raw URL path.
	labelHandler = "handler"

	// outcomeOK, outcomeTimeout and outcomeError partition LLM requests.
	outcomeOK      = "ok"
	outcomeTimeout = "timeout"
	outcomeError   = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// llmRequestsTotal counts completed model calls, partitioned by operation
	// (summarize, consensus, gaps) and outcome.
	llmRequestsTotal *prometheus.CounterVec

	// llmDurationSeconds records the wall-clock duration of each model call.
	llmDurationSeconds *prometheus.HistogramVec

	// searchResults records the number of results returned per search.
	searchResults prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, route pattern, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec

	// rateLimitedTotal counts requests rejected with 429, by route pattern.
	rateLimitedTotal *prometheus.CounterVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		llmRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sbke",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total number of model calls completed, partitioned by operation and outcome.",
		}, []string{"operation", "outcome"}),

		llmDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sbke",
			Subsystem: "llm",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of model calls.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"operation"}),

		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sbke",
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of results returned per search request.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sbke",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sbke",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),

		rateLimitedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sbke",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}, []string{labelHandler}),
	}
}
