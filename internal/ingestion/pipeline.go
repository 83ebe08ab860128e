// Package ingestion implements the paper ingestion pipeline. It reads a
// directory of PDFs, extracts per-page text, detects sections, asks the
// research analyst for structured paper metadata, chunks the paper, and
// indexes the chunks into the vector store. Processed papers are recorded
// in a cache so repeated runs skip them.
// This pipeline is invoked by the `sbke ingest` CLI command.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/rag"
	"github.com/54b3r/sbke-go/internal/store"
)

// MetadataExtractor produces structured metadata from a paper's full text.
// *insight.Analyst satisfies it.
type MetadataExtractor interface {
	// ExtractPaperMetadata returns the metadata of the paper in fileName.
	ExtractPaperMetadata(ctx context.Context, text, fileName string) (*insight.PaperMetadata, error)
}

// ChunkIndexer embeds and stores chunks. *rag.Indexer satisfies it.
type ChunkIndexer interface {
	// Index embeds and upserts chunks.
	Index(ctx context.Context, chunks []rag.Chunk) error
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkWords is the number of words per section chunk.
	// Defaults to DefaultChunkWords if zero.
	ChunkWords int

	// ChunkOverlap is the number of words shared by consecutive chunks.
	// Defaults to DefaultChunkOverlap if zero.
	ChunkOverlap int

	// Workers is the number of papers processed concurrently.
	// Defaults to half the CPU count, minimum 1.
	Workers int

	// Extract reads the per-page text of a PDF. Defaults to ExtractPDF.
	Extract func(path string) ([]string, error)
}

// Report summarises one ingestion run.
type Report struct {
	// Processed is the number of papers indexed in this run.
	Processed int `json:"processed"`
	// Skipped is the number of papers found in the cache.
	Skipped int `json:"skipped"`
	// Failed is the number of papers that could not be indexed.
	Failed int `json:"failed"`
	// Chunks is the number of chunks indexed in this run.
	Chunks int `json:"chunks"`
	// Failures maps a file name to its error message.
	Failures map[string]string `json:"failures,omitempty"`
}

// Pipeline orchestrates the extract → sections → metadata → chunk → index
// flow for a directory of PDFs.
type Pipeline struct {
	// extractor produces paper metadata.
	extractor MetadataExtractor

	// indexer embeds and stores chunks.
	indexer ChunkIndexer

	// cache records processed papers. May be nil.
	cache store.PaperCache

	// pool runs one task per paper.
	pool *ants.Pool

	// cfg is the resolved pipeline configuration.
	cfg Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
// cache may be nil, in which case every run processes every paper. Call
// Release when the pipeline is no longer needed.
func NewPipeline(extractor MetadataExtractor, indexer ChunkIndexer, cache store.PaperCache, cfg *Config) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ingestion: metadata extractor must not be nil")
	}
	if indexer == nil {
		return nil, fmt.Errorf("ingestion: indexer must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	if c.ChunkWords <= 0 {
		c.ChunkWords = DefaultChunkWords
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.ChunkOverlap >= c.ChunkWords {
		c.ChunkOverlap = c.ChunkWords / 10
	}
	if c.Workers <= 0 {
		c.Workers = max(runtime.NumCPU()/2, 1)
	}
	if c.Extract == nil {
		c.Extract = ExtractPDF
	}

	pool, err := ants.NewPool(c.Workers)
	if err != nil {
		return nil, fmt.Errorf("ingestion: failed to create worker pool: %w", err)
	}

	return &Pipeline{
		extractor: extractor,
		indexer:   indexer,
		cache:     cache,
		pool:      pool,
		cfg:       c,
	}, nil
}

// Release stops the worker pool.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// Ingest processes every *.pdf file in dir. Papers already in the cache are
// skipped unless reprocess is set. A failing paper is logged and counted;
// it does not stop the run. The returned error is non-nil only when the
// directory cannot be read or the context is cancelled.
func (p *Pipeline) Ingest(ctx context.Context, dir string, reprocess bool) (*Report, error) {
	files, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	log.Info("ingestion: starting", slog.String("dir", dir), slog.Int("files", len(files)), slog.Bool("reprocess", reprocess))

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = &Report{Failures: make(map[string]string)}
	)
	record := func(name string, chunks int, skipped bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Failed++
			report.Failures[name] = err.Error()
		case skipped:
			report.Skipped++
		default:
			report.Processed++
			report.Chunks += chunks
		}
	}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		name := filepath.Base(path)
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			chunks, skipped, err := p.processPaper(ctx, path, reprocess)
			if err != nil {
				log.Warn("ingestion: paper failed", slog.String("file", name), slog.Any("error", err))
			} else if !skipped {
				log.Info("ingestion: paper indexed",
					slog.String("file", name),
					slog.Int("chunks", chunks),
					slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				)
			}
			record(name, chunks, skipped, err)
		})
		if submitErr != nil {
			wg.Done()
			record(name, 0, false, fmt.Errorf("submit: %w", submitErr))
		}
	}
	wg.Wait()

	log.Info("ingestion: finished",
		slog.Int("processed", report.Processed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("chunks", report.Chunks),
	)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingestion: cancelled: %w", err)
	}
	return report, nil
}

// processPaper runs the full flow for one PDF and returns the number of
// chunks indexed. skipped is true when the paper was found in the cache.
func (p *Pipeline) processPaper(ctx context.Context, path string, reprocess bool) (chunks int, skipped bool, err error) {
	name := filepath.Base(path)
	paperID := strings.TrimSuffix(name, filepath.Ext(name))

	if p.cache != nil && !reprocess {
		_, ok, err := p.cache.Get(ctx, paperID)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return 0, true, nil
		}
	}

	pages, err := p.cfg.Extract(path)
	if err != nil {
		return 0, false, err
	}
	text := DetectSections(pages)

	meta, err := p.extractor.ExtractPaperMetadata(ctx, text.FullText, name)
	if err != nil {
		return 0, false, err
	}
	if meta.PaperID == "" {
		meta.PaperID = paperID
	}

	paperChunks := ChunkPaper(text, meta, p.cfg.ChunkWords, p.cfg.ChunkOverlap)
	if len(paperChunks) == 0 {
		return 0, false, fmt.Errorf("ingestion: %s produced no chunks", name)
	}
	if err := p.indexer.Index(ctx, paperChunks); err != nil {
		return 0, false, err
	}

	if p.cache != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return 0, false, fmt.Errorf("ingestion: encode metadata for %s: %w", name, err)
		}
		if err := p.cache.Put(ctx, store.Paper{
			PaperID:    meta.PaperID,
			FilePath:   name,
			Title:      meta.Title,
			Year:       meta.Year,
			ChunkCount: len(paperChunks),
			Metadata:   string(raw),
		}); err != nil {
			return 0, false, err
		}
	}
	return len(paperChunks), false, nil
}

// listPDFs returns the *.pdf files directly inside dir, sorted by name.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}
