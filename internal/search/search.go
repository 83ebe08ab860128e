// Package search runs reranked semantic search: the query text is embedded,
// the vector index is over-fetched, and the raw candidates are reordered by
// the reranking engine.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/rerank"
)

const (
	// DefaultTopK is used when a query does not set TopK.
	DefaultTopK = 10
	// MaxTopK caps the number of results per query.
	MaxTopK = 50
)

// Embedder converts query text into a vector.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// CandidateIndex answers nearest-neighbour queries.
type CandidateIndex interface {
	// Query returns up to topK raw candidates restricted by filter.
	Query(ctx context.Context, vector []float32, topK int, filter *corpus.Filter) ([]corpus.Candidate, error)
}

// RetrievalError reports that the query could not be embedded or the index
// could not be queried. No partial results accompany it.
type RetrievalError struct {
	// Op names the failed operation.
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("search: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RetrievalError) Unwrap() error { return e.Err }

// Query is a single search request.
type Query struct {
	// Text is the natural-language query.
	Text string `json:"query"`
	// TopK is the maximum number of results. Zero selects DefaultTopK.
	TopK int `json:"top_k"`
	// Filter restricts the candidate set. May be nil.
	Filter *corpus.Filter `json:"filters,omitempty"`
}

// Response is the result of Service.Search.
type Response struct {
	// Results are the reranked matches, best first.
	Results []rerank.Result `json:"results"`
	// Count is len(Results).
	Count int `json:"count"`
	// Query echoes the query text.
	Query string `json:"query"`
}

// Service executes reranked searches. It is safe for concurrent use.
type Service struct {
	// embedder embeds query text.
	embedder Embedder
	// index answers nearest-neighbour queries.
	index CandidateIndex
	// cfg holds the reranking thresholds and boost sections.
	cfg rerank.Config
}

// NewService constructs a Service.
func NewService(embedder Embedder, index CandidateIndex, cfg rerank.Config) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("search: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("search: index must not be nil")
	}
	return &Service{embedder: embedder, index: index, cfg: cfg}, nil
}

// Search embeds q.Text, over-fetches candidates from the index and reranks
// them. TopK ≤ 0 selects DefaultTopK; values above MaxTopK are capped.
func (s *Service) Search(ctx context.Context, q Query) (*Response, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("search: query text must not be empty")
	}
	topK := clampTopK(q.TopK)

	start := time.Now()
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, &RetrievalError{Op: "embed query", Err: err}
	}
	if len(vecs) != 1 {
		return nil, &RetrievalError{Op: "embed query", Err: fmt.Errorf("got %d vectors for 1 text", len(vecs))}
	}

	candidates, err := s.index.Query(ctx, vecs[0], rerank.FetchSize(topK), q.Filter)
	if err != nil {
		return nil, &RetrievalError{Op: "query index", Err: err}
	}

	results := rerank.Rerank(candidates, topK, s.cfg.BoostSections, s.cfg)

	log := logging.FromContext(ctx)
	attrs := []any{
		slog.Int("candidates", len(candidates)),
		slog.Int("results", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if len(results) > 0 {
		attrs = append(attrs,
			slog.Float64("mean_score", meanScore(results)),
			slog.Float64("top_score", results[0].Score),
		)
	}
	log.Info("search: completed", attrs...)

	return &Response{Results: results, Count: len(results), Query: text}, nil
}

// clampTopK applies the default and the cap.
func clampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return min(k, MaxTopK)
}

func meanScore(results []rerank.Result) float64 {
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}
