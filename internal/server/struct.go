package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/sbke-go/internal/analytics"
	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/search"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// LLMTimeout bounds each summarize, consensus and gap narrative call.
	// Defaults to 2 minutes if zero.
	LLMTimeout time.Duration
	// MaxBodyBytes caps the size of POST request bodies. Defaults to 4 MiB.
	MaxBodyBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer serves GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Deps holds the services the HTTP handlers delegate to.
type Deps struct {
	// Search runs reranked semantic search. Required.
	Search searcher
	// Analytics computes trends, gaps, filters and stats. Required.
	Analytics analyticsService
	// Analyst writes LLM insights. May be nil, in which case the
	// summarize and consensus routes return 503 and gap reports carry no
	// narrative.
	Analyst analyst
}

// searcher is the interface the search handler calls.
// *search.Service satisfies it; tests inject a fake.
type searcher interface {
	// Search executes a reranked search.
	Search(ctx context.Context, q search.Query) (*search.Response, error)
}

// analyticsService is the interface the analytics handlers call.
// *analytics.Service satisfies it; tests inject a fake.
type analyticsService interface {
	// Trends computes the trend report over a corpus snapshot.
	Trends(ctx context.Context) (*analytics.TrendsReport, error)
	// Gaps computes coverage and comparative gaps.
	Gaps(ctx context.Context, chunks []corpus.ChunkMetadata) (*analytics.GapReport, error)
	// Filters lists the distinct filter values.
	Filters(ctx context.Context) (*analytics.Filters, error)
	// Stats summarises the corpus size.
	Stats(ctx context.Context) (*analytics.Stats, error)
}

// analyst is the interface the LLM handlers call.
// *insight.Analyst satisfies it; tests inject a fake.
type analyst interface {
	// Summarize writes a persona-specific summary.
	Summarize(ctx context.Context, texts []string, persona insight.Persona) (*insight.Summary, error)
	// Consensus analyses agreement across excerpts.
	Consensus(ctx context.Context, topic string, texts []string) (*insight.ConsensusAnalysis, error)
	// GapNarrative writes the qualitative gap analysis.
	GapNarrative(ctx context.Context, texts []string, chunks []corpus.ChunkMetadata) (*insight.GapNarrative, error)
}

// Server is the HTTP server that exposes search, analytics and insights.
type Server struct {
	// search runs reranked semantic search.
	search searcher
	// analytics computes corpus analytics.
	analytics analyticsService
	// analyst writes LLM insights. May be nil.
	analyst analyst
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
	// metrics holds the Prometheus collectors owned by this server.
	metrics *serverMetrics
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural-language query.
	Query string `json:"query"`
	// TopK is the maximum number of results (default 10, max 50).
	TopK int `json:"top_k"`
	// Filters holds optional year, organisms and section predicates. Values
	// are decoded tolerantly (e.g. a year may be a string).
	Filters map[string]any `json:"filters,omitempty"`
}

// resultItem is one search result as echoed back by clients to the insight
// routes.
type resultItem struct {
	// Text is the chunk text.
	Text string `json:"text"`
	// Metadata is the chunk metadata, decoded tolerantly.
	Metadata map[string]any `json:"metadata"`
}

// summarizeRequest is the JSON body for POST /api/summarize.
type summarizeRequest struct {
	// Query is the originating search query, logged only.
	Query string `json:"query"`
	// Results are the search results to summarise.
	Results []resultItem `json:"results"`
	// Persona selects the audience (scientist, investor, architect).
	Persona string `json:"persona"`
}

// consensusRequest is the JSON body for POST /api/consensus.
type consensusRequest struct {
	// Topic is the subject the excerpts are analysed for.
	Topic string `json:"topic"`
	// Results are the search results to analyse.
	Results []resultItem `json:"results"`
}

// consensusResponse is the JSON response for POST /api/consensus.
type consensusResponse struct {
	// Analysis is the model's consensus analysis.
	Analysis *insight.ConsensusAnalysis `json:"analysis"`
	// PapersAnalyzed is the number of results received.
	PapersAnalyzed int `json:"papers_analyzed"`
}

// gapsRequest is the JSON body for POST /api/gaps.
type gapsRequest struct {
	// Results are optional search results to analyse. When empty the whole
	// corpus snapshot is analysed.
	Results []resultItem `json:"results"`
}

// gapsResponse is the JSON response for POST /api/gaps.
type gapsResponse struct {
	*analytics.GapReport
	// AIInsights is the qualitative narrative, absent when no model is
	// configured or the model call failed.
	AIInsights *insight.GapNarrative `json:"ai_insights,omitempty"`
}
