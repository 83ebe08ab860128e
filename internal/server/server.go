// Package server implements the HTTP API over the search, analytics and
// insight services. The server is started by the `sbke serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/sbke-go/internal/analytics"
	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/search"
)

// gapSampleQuery and gapSampleTopK select the excerpts handed to the gap
// narrative when the client supplies no results.
const (
	gapSampleQuery = "space biology research"
	gapSampleTopK  = 50
)

// New constructs a Server from the provided services and config.
func New(deps Deps, cfg *Config) (*Server, error) {
	if deps.Search == nil {
		return nil, fmt.Errorf("server: search service must not be nil")
	}
	if deps.Analytics == nil {
		return nil, fmt.Errorf("server: analytics service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// Must outlast the slowest model call.
		cfg.WriteTimeout = cfg.LLMTimeout + 30*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		search:    deps.Search,
		analytics: deps.Analytics,
		analyst:   deps.Analyst,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL
	rl.rejected = func(route string) {
		s.metrics.rateLimitedTotal.WithLabelValues(route).Inc()
	}

	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	mux.Handle("POST /api/search", limited(s.handleSearch))
	mux.Handle("POST /api/summarize", limited(s.handleSummarize))
	mux.Handle("POST /api/consensus", limited(s.handleConsensus))
	mux.Handle("POST /api/gaps", limited(s.handleGaps))
	mux.Handle("GET /api/trends", protected(s.handleTrends))
	mux.Handle("GET /api/filters", protected(s.handleFilters))
	mux.Handle("GET /api/stats", protected(s.handleStats))

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: API key not set, authentication disabled")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, corsMiddleware(s.metricsMiddleware(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.log.Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleSearch handles POST /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.search.Search(r.Context(), search.Query{
		Text:   req.Query,
		TopK:   req.TopK,
		Filter: parseFilter(req.Filters),
	})
	if err != nil {
		s.writeServiceError(w, r, "search", err)
		return
	}
	s.metrics.searchResults.Observe(float64(resp.Count))

	writeJSON(w, r, http.StatusOK, resp)
}

// handleSummarize handles POST /api/summarize.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalyst(w, r) {
		return
	}
	var req summarizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	persona := insight.ParsePersona(req.Persona)
	logging.FromContext(r.Context()).Info("summarize: request",
		slog.String("query", req.Query),
		slog.String("persona", string(persona)),
		slog.Int("results", len(req.Results)),
	)

	var summary *insight.Summary
	err := s.callLLM(r.Context(), "summarize", func(ctx context.Context) error {
		var err error
		summary, err = s.analyst.Summarize(ctx, resultTexts(req.Results), persona)
		return err
	})
	if err != nil {
		s.writeServiceError(w, r, "summarize", err)
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// handleConsensus handles POST /api/consensus.
func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalyst(w, r) {
		return
	}
	var req consensusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Results) == 0 {
		writeError(w, r, http.StatusBadRequest, "results must not be empty")
		return
	}

	var analysis *insight.ConsensusAnalysis
	err := s.callLLM(r.Context(), "consensus", func(ctx context.Context) error {
		var err error
		analysis, err = s.analyst.Consensus(ctx, req.Topic, resultTexts(req.Results))
		return err
	})
	if err != nil {
		s.writeServiceError(w, r, "consensus", err)
		return
	}

	writeJSON(w, r, http.StatusOK, consensusResponse{
		Analysis:       analysis,
		PapersAnalyzed: len(req.Results),
	})
}

// handleGaps handles POST /api/gaps. The quantitative report is always
// returned; the narrative is attached only when a model is configured and the
// call succeeds.
func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	log := logging.FromContext(ctx)

	chunks := resultMetadata(req.Results)
	report, err := s.analytics.Gaps(ctx, chunks)
	if err != nil {
		s.writeServiceError(w, r, "gaps", err)
		return
	}
	resp := gapsResponse{GapReport: report}

	if s.analyst != nil {
		texts := resultTexts(req.Results)
		if len(texts) == 0 {
			texts, chunks = s.sampleExcerpts(ctx)
		}
		if len(texts) > 0 {
			err := s.callLLM(ctx, "gaps", func(ctx context.Context) error {
				var err error
				resp.AIInsights, err = s.analyst.GapNarrative(ctx, texts, chunks)
				return err
			})
			if err != nil {
				log.Warn("gaps: narrative unavailable", slog.Any("error", err))
				resp.AIInsights = nil
			}
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// sampleExcerpts runs a broad search to collect excerpts for the gap
// narrative. Failures are logged and yield no excerpts.
func (s *Server) sampleExcerpts(ctx context.Context) ([]string, []corpus.ChunkMetadata) {
	resp, err := s.search.Search(ctx, search.Query{Text: gapSampleQuery, TopK: gapSampleTopK})
	if err != nil {
		logging.FromContext(ctx).Warn("gaps: sample search failed", slog.Any("error", err))
		return nil, nil
	}
	texts := make([]string, 0, len(resp.Results))
	chunks := make([]corpus.ChunkMetadata, 0, len(resp.Results))
	for _, res := range resp.Results {
		texts = append(texts, res.Text)
		chunks = append(chunks, res.Metadata)
	}
	return texts, chunks
}

// handleTrends handles GET /api/trends.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Trends(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "trends", err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleFilters handles GET /api/filters.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.analytics.Filters(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "filters", err)
		return
	}
	writeJSON(w, r, http.StatusOK, filters)
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// callLLM runs fn under the configured model timeout and records its outcome
// and duration.
func (s *Server) callLLM(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.metrics.llmDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := outcomeOK
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = outcomeTimeout
	case err != nil:
		outcome = outcomeError
	}
	s.metrics.llmRequestsTotal.WithLabelValues(op, outcome).Inc()
	return err
}

// requireAnalyst writes 503 and returns false when no model is configured.
func (s *Server) requireAnalyst(w http.ResponseWriter, r *http.Request) bool {
	if s.analyst != nil {
		return true
	}
	writeError(w, r, http.StatusServiceUnavailable, "language model not configured")
	return false
}

// decode reads a size-capped JSON body into v, writing 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps a service error to a status code: 504 when any
// upstream call timed out, 502 for other upstream failures (vector store,
// embedder, model), and 400 otherwise. Deadline and cancellation are checked
// first because retrieval errors wrap them.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		searchErr    *search.RetrievalError
		analyticsErr *analytics.RetrievalError
	)
	status := http.StatusBadRequest
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		msg = "request timed out"
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
		msg = "request cancelled"
	case errors.As(err, &searchErr), errors.As(err, &analyticsErr):
		status = http.StatusBadGateway
		msg = "vector store unavailable"
	case errors.Is(err, insight.ErrMalformedOutput), errors.Is(err, insight.ErrGenerate):
		status = http.StatusBadGateway
		msg = "language model request failed"
	}

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(op+": failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		log.Warn(op+": rejected", slog.Int("status", status), slog.Any("error", err))
	}
	writeError(w, r, status, msg)
}

// errorResponse is the JSON body written for all error statuses.
type errorResponse struct {
	// Error is a short client-safe description.
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}

// parseFilter decodes a loosely typed filter object. An object with no usable
// predicate yields nil.
func parseFilter(raw map[string]any) *corpus.Filter {
	if len(raw) == 0 {
		return nil
	}
	m := corpus.FromPayload(raw)
	f := &corpus.Filter{Year: m.Year, Organisms: m.Organisms, Section: m.Section}
	if f.IsEmpty() {
		return nil
	}
	return f
}

func resultTexts(results []resultItem) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Text != "" {
			out = append(out, r.Text)
		}
	}
	return out
}

func resultMetadata(results []resultItem) []corpus.ChunkMetadata {
	if len(results) == 0 {
		return nil
	}
	out := make([]corpus.ChunkMetadata, 0, len(results))
	for _, r := range results {
		out = append(out, corpus.FromPayload(r.Metadata))
	}
	return out
}
