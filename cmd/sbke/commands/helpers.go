package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/54b3r/sbke-go/internal/analytics"
	"github.com/54b3r/sbke-go/internal/config"
	"github.com/54b3r/sbke-go/internal/embedder"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/provider"
	"github.com/54b3r/sbke-go/internal/rag"
	"github.com/54b3r/sbke-go/internal/rerank"
	"github.com/54b3r/sbke-go/internal/search"
	"github.com/54b3r/sbke-go/internal/store"
)

// defaultCollection is the Qdrant collection used when QDRANT_COLLECTION is unset.
const defaultCollection = "space_biology_papers"

// openVectorStore validates the embedding setup and connects to Qdrant,
// creating the collection with the embedder's dimensions if needed.
func openVectorStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, rag.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	backend := embedder.Backend()
	log.Info("embedder initialised", slog.String("provider", backend))

	host := config.String("QDRANT_HOST", "localhost")
	port := config.Int("QDRANT_PORT", 6334)
	collection := config.String("QDRANT_COLLECTION", defaultCollection)

	qs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: uint64(embedder.DefaultDimensions(backend)), //nolint:gosec // dimensions are bounded
		APIKey:     config.String("QDRANT_API_KEY", ""),
		UseTLS:     config.String("QDRANT_TLS", "") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)
	return qs, emb, nil
}

// newAnalyst builds the LLM-backed analyst from the provider env vars.
func newAnalyst(ctx context.Context, log *slog.Logger) (*insight.Analyst, *provider.Config, error) {
	cfg, err := provider.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	chatModel, err := provider.New(ctx, cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(cfg.Backend)),
		slog.String("model", cfg.ModelName()),
	)
	a, err := insight.New(&insight.Config{Model: chatModel})
	return a, cfg, err
}

// newSearchService wires the embedder and vector store into a search.Service.
func newSearchService(emb rag.Embedder, qs *rag.QdrantStore) (*search.Service, error) {
	return search.NewService(emb, qs, rerank.ConfigFromEnv())
}

// newAnalyticsService wires the vector store into an analytics.Service.
func newAnalyticsService(qs *rag.QdrantStore) (*analytics.Service, error) {
	return analytics.NewService(qs, qs, analytics.ConfigFromEnv())
}

// openPaperCache opens the processed-paper cache at SBKE_CACHE_DB, or the
// default path under the user's home directory.
func openPaperCache() (*store.SQLiteCache, error) {
	path := config.String("SBKE_CACHE_DB", "")
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
