package rag

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of chunks embedded and upserted per call.
const DefaultBatchSize = 100

// Indexer embeds chunks and writes them to a ChunkStore in fixed-size
// batches. It combines an Embedder and a ChunkStore the way a retriever
// would, but on the write path.
type Indexer struct {
	// embedder converts chunk text to dense vectors.
	embedder Embedder

	// store persists the chunks with their vectors.
	store ChunkStore

	// batchSize is the number of chunks embedded per request.
	batchSize int
}

// NewIndexer constructs an Indexer from the given Embedder and ChunkStore.
// batchSize <= 0 selects DefaultBatchSize.
func NewIndexer(embedder Embedder, store ChunkStore, batchSize int) (*Indexer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}, nil
}

// Index embeds and upserts chunks batch by batch. It stops at the first
// failing batch; batches written before the failure stay written.
func (ix *Indexer) Index(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("rag: embedding batch %d-%d failed: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("rag: embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		if err := ix.store.Upsert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("rag: upserting batch %d-%d failed: %w", start, end, err)
		}
	}
	return nil
}
