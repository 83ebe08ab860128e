package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/sbke-go/internal/analytics"
	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/rag"
	"github.com/54b3r/sbke-go/internal/search"
)

// NewTrendsCmd constructs the `sbke trends` command.
func NewTrendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Print research trends computed over a corpus snapshot",
		Long: `Fetch a bounded snapshot of chunk metadata and print publication counts
by year, top organisms and topics, the overall growth trend, organism
co-occurrence, emerging areas, organism trends and topic evolution.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			qs, _, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("trends: %w", err)
			}
			defer qs.Close()

			svc, err := newAnalyticsService(qs)
			if err != nil {
				return fmt.Errorf("trends: %w", err)
			}
			report, err := svc.Trends(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

// NewGapsCmd constructs the `sbke gaps` command.
func NewGapsCmd() *cobra.Command {
	var narrative bool
	var stats bool

	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Print coverage and comparative research gaps",
		Long: `Fetch a bounded snapshot of chunk metadata and score under-studied
organisms, topics and years, plus untested organism/condition combinations.

With --narrative the configured LLM also writes a qualitative gap analysis
from a broad sample of indexed excerpts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			qs, emb, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("gaps: %w", err)
			}
			defer qs.Close()

			svc, err := newAnalyticsService(qs)
			if err != nil {
				return fmt.Errorf("gaps: %w", err)
			}

			out := struct {
				*analytics.GapReport
				Stats      *analytics.Stats      `json:"stats,omitempty"`
				AIInsights *insight.GapNarrative `json:"ai_insights,omitempty"`
			}{}
			if out.GapReport, err = svc.Gaps(ctx, nil); err != nil {
				return err
			}
			if stats {
				if out.Stats, err = svc.Stats(ctx); err != nil {
					return err
				}
			}

			if narrative {
				out.AIInsights, err = gapNarrative(ctx, log, emb, qs)
				if err != nil {
					log.Warn("gaps: narrative unavailable", slog.Any("error", err))
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&narrative, "narrative", false, "Add an LLM-written gap narrative")
	cmd.Flags().BoolVar(&stats, "stats", false, "Include corpus size statistics")

	return cmd
}

// gapNarrative samples excerpts with a broad search and asks the LLM for a
// qualitative gap analysis.
func gapNarrative(ctx context.Context, log *slog.Logger, emb rag.Embedder, qs *rag.QdrantStore) (*insight.GapNarrative, error) {
	analyst, _, err := newAnalyst(ctx, log)
	if err != nil {
		return nil, err
	}
	svc, err := newSearchService(emb, qs)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Search(ctx, search.Query{Text: "space biology research", TopK: search.MaxTopK})
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(resp.Results))
	chunks := make([]corpus.ChunkMetadata, 0, len(resp.Results))
	for _, r := range resp.Results {
		texts = append(texts, r.Text)
		chunks = append(chunks, r.Metadata)
	}
	return analyst.GapNarrative(ctx, texts, chunks)
}
