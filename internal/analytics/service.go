package analytics

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/logging"
)

// SnapshotSource supplies a bounded corpus snapshot.
// Implementations must be safe to call from multiple goroutines.
type SnapshotSource interface {
	// FetchAll returns up to limit chunk metadata records in no particular order.
	FetchAll(ctx context.Context, limit int) ([]corpus.ChunkMetadata, error)
}

// Counter reports the total number of stored vectors.
type Counter interface {
	// Count returns the number of points in the collection.
	Count(ctx context.Context) (uint64, error)
}

// RetrievalError reports that the corpus snapshot or vector count could not be
// fetched. No partial analytics are computed when it is returned.
type RetrievalError struct {
	// Op names the failed operation.
	Op string
	// Err is the underlying transport error.
	Err error
}

// Error implements error.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("analytics: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RetrievalError) Unwrap() error { return e.Err }

// TrendsReport is the response of Service.Trends.
type TrendsReport struct {
	ResearchByYear       FrequencyTable[int] `json:"research_by_year"`
	TopOrganisms         map[string]int      `json:"top_organisms"`
	TopTopics            map[string]int      `json:"top_topics"`
	EmergingAreas        []EmergingArea      `json:"emerging_areas"`
	TemporalAnalysis     TrendSummary        `json:"temporal_analysis"`
	CollaborationNetwork []CollaborationEdge `json:"collaboration_network"`
	OrganismTrends       []OrganismTrend     `json:"organism_trends_by_year"`
	TopicEvolution       []TopicTimeline     `json:"topic_evolution"`
	ChunksAnalyzed       int                 `json:"chunks_analyzed"`
}

// GapReport is the quantitative half of a gap analysis.
type GapReport struct {
	QuantitativeScoring []GapRecord          `json:"quantitative_scoring"`
	ComparativeAnalysis ComparativeGapReport `json:"comparative_analysis"`
	ChunksAnalyzed      int                  `json:"chunks_analyzed"`
}

// Filters lists the distinct values available for search filtering.
type Filters struct {
	Years     []int    `json:"years"`
	Organisms []string `json:"organisms"`
	Sections  []string `json:"sections"`
}

// Stats summarises the size of the indexed corpus.
type Stats struct {
	TotalPapers   int    `json:"total_papers"`
	TotalVectors  uint64 `json:"total_vectors"`
	ChunksSampled int    `json:"chunks_sampled"`
}

// Service runs the analyzers over snapshots fetched from a SnapshotSource.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	// source supplies corpus snapshots.
	source SnapshotSource

	// counter reports the total vector count. May be nil.
	counter Counter

	// cfg holds thresholds, limits and snapshot bounds.
	cfg Config
}

// NewService constructs a Service. counter may be nil, in which case Stats
// reports zero vectors.
func NewService(source SnapshotSource, counter Counter, cfg Config) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("analytics: snapshot source must not be nil")
	}
	def := DefaultConfig()
	if cfg.SnapshotMax <= 0 {
		cfg.SnapshotMax = def.SnapshotMax
	}
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = def.SnapshotTimeout
	}
	return &Service{source: source, counter: counter, cfg: cfg}, nil
}

// snapshot fetches one bounded snapshot under the configured timeout.
func (s *Service) snapshot(ctx context.Context) ([]corpus.ChunkMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SnapshotTimeout)
	defer cancel()

	start := time.Now()
	chunks, err := s.source.FetchAll(ctx, s.cfg.SnapshotMax)
	if err != nil {
		return nil, &RetrievalError{Op: "fetch snapshot", Err: err}
	}
	logging.FromContext(ctx).Debug("analytics: snapshot fetched",
		"chunks", len(chunks),
		"max", s.cfg.SnapshotMax,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chunks, nil
}

// Trends computes the full trend report. The analyzers run concurrently over
// the same aggregated tables.
func (s *Service) Trends(ctx context.Context) (*TrendsReport, error) {
	chunks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	t := Aggregate(chunks)

	r := &TrendsReport{
		ResearchByYear: t.Years,
		TopOrganisms:   rankedMap(topN(t.Organisms, s.cfg.TopOrganisms)),
		TopTopics:      rankedMap(topN(t.Topics, s.cfg.TopTopics)),
		ChunksAnalyzed: t.Chunks,
	}

	var g errgroup.Group
	g.Go(func() error {
		r.TemporalAnalysis = AnalyzeTrend(t.Years, s.cfg)
		return nil
	})
	g.Go(func() error {
		r.CollaborationNetwork = BuildNetwork(t.Pairs, t.Organisms, s.cfg.NetworkLimit)
		return nil
	})
	g.Go(func() error {
		r.EmergingAreas = DetectEmerging(t.Topics, t.Years, t.TopicYears, s.cfg, s.cfg.EmergingLimit)
		return nil
	})
	g.Go(func() error {
		r.OrganismTrends = OrganismTrends(t, s.cfg, s.cfg.TopOrganisms)
		r.TopicEvolution = TopicEvolution(t, s.cfg.TopTopics)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics: trends: %w", err)
	}

	return r, nil
}

// Gaps computes coverage and comparative gaps over chunks. When chunks is
// empty the service fetches a snapshot itself.
func (s *Service) Gaps(ctx context.Context, chunks []corpus.ChunkMetadata) (*GapReport, error) {
	if len(chunks) == 0 {
		var err error
		if chunks, err = s.snapshot(ctx); err != nil {
			return nil, err
		}
	}
	t := Aggregate(chunks)

	r := &GapReport{ChunksAnalyzed: t.Chunks}
	var g errgroup.Group
	g.Go(func() error {
		r.QuantitativeScoring = AnalyzeCoverage(t.Organisms, t.Topics, t.Years, s.cfg)
		return nil
	})
	g.Go(func() error {
		r.ComparativeAnalysis = AnalyzeComparative(chunks, s.cfg.MaxComparativeGaps)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics: gaps: %w", err)
	}

	return r, nil
}

// Filters returns the sorted distinct years, organisms and sections present
// in a snapshot.
func (s *Service) Filters(ctx context.Context) (*Filters, error) {
	chunks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	t := Aggregate(chunks)

	return &Filters{
		Years:     sortedYears(t.Years),
		Organisms: sortedKeys(t.Organisms),
		Sections:  sortedKeys(t.Sections),
	}, nil
}

// Stats returns the number of distinct papers in a snapshot and the total
// vector count.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	chunks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	t := Aggregate(chunks)

	st := &Stats{TotalPapers: len(t.Papers), ChunksSampled: t.Chunks}
	if s.counter != nil {
		n, err := s.counter.Count(ctx)
		if err != nil {
			return nil, &RetrievalError{Op: "count vectors", Err: err}
		}
		st.TotalVectors = n
	}
	return st, nil
}

func sortedKeys(t FrequencyTable[string]) []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
