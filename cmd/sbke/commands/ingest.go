package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/sbke-go/internal/config"
	"github.com/54b3r/sbke-go/internal/ingestion"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/rag"
	"github.com/54b3r/sbke-go/internal/tracing"
)

// embedBatchSize is the number of chunks embedded per request during ingestion.
const embedBatchSize = 100

// NewIngestCmd constructs the `sbke ingest` command, which extracts, chunks
// and indexes a directory of research-paper PDFs.
func NewIngestCmd() *cobra.Command {
	var dir string
	var reprocess bool
	var workers int

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index a directory of research-paper PDFs into the vector store",
		Long: `Extract text from every PDF in a directory, split it into sections,
ask the configured LLM for paper metadata (title, year, organisms, keywords,
space conditions), chunk each section and index the chunks in Qdrant.

Papers already recorded in the processed-paper cache are skipped unless
--reprocess is set. Chunk IDs are deterministic, so reprocessing a paper
overwrites its previous chunks.

Environment variables:
  SBKE_PDF_DIR         Default directory when [dir] is omitted
  SBKE_CACHE_DB        Processed-paper cache (default: ~/.sbke/papers.db)
  SBKE_CHUNK_WORDS     Words per chunk (default: 800)
  SBKE_CHUNK_OVERLAP   Words shared by consecutive chunks (default: 150)
  QDRANT_*             Vector store connection
  MODEL_PROVIDER       Chat backend used for metadata extraction
  EMBEDDING_*          Embedding overrides

Examples:
  sbke ingest --dir data/pdfs
  sbke ingest ./papers --reprocess --workers 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = config.String("SBKE_PDF_DIR", "")
			}
			if dir == "" {
				return fmt.Errorf("ingest: a PDF directory is required (--dir, argument or SBKE_PDF_DIR)")
			}

			flush, _ := tracing.Install(tracing.ConfigFromEnv())
			defer flush()

			analyst, _, err := newAnalyst(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			qs, emb, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer qs.Close()

			indexer, err := rag.NewIndexer(emb, qs, embedBatchSize)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			cache, err := openPaperCache()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer cache.Close()

			if !cmd.Flags().Changed("workers") {
				workers = config.Int("SBKE_INGEST_WORKERS", workers)
			}
			pipeline, err := ingestion.NewPipeline(analyst, indexer, cache, &ingestion.Config{
				ChunkWords:   config.Int("SBKE_CHUNK_WORDS", ingestion.DefaultChunkWords),
				ChunkOverlap: config.Int("SBKE_CHUNK_OVERLAP", ingestion.DefaultChunkOverlap),
				Workers:      workers,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer pipeline.Release()

			log.Info("starting ingestion", slog.String("dir", dir), slog.Bool("reprocess", reprocess))

			report, err := pipeline.Ingest(ctx, dir, reprocess)
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("processed", report.Processed),
				slog.Int("skipped", report.Skipped),
				slog.Int("failed", report.Failed),
				slog.Int("chunks", report.Chunks),
			)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of PDFs to ingest")
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "Re-index papers already recorded in the cache")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Papers processed concurrently (default: half the CPUs)")

	return cmd
}
