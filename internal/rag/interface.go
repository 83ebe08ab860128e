// Package rag defines the storage side of the retrieval pipeline: embedding
// text into vectors, persisting chunks with their metadata, and reading them
// back either by similarity or as a bounded corpus snapshot.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// search and analytics layers never depend on a specific backend.
package rag

import (
	"context"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// Chunk is a unit of paper text stored alongside its embedding.
type Chunk struct {
	// ID is the unique point identifier (a UUID string).
	ID string

	// Text is the raw chunk text.
	Text string

	// Metadata is the topical metadata stored in the point payload.
	Metadata corpus.ChunkMetadata
}

// ChunkStore is the interface for persisting and reading paper chunks.
// Implementations must be safe to call from multiple goroutines.
type ChunkStore interface {
	// Upsert stores or updates a batch of chunks with their pre-computed embeddings.
	// The vectors slice must be parallel to chunks: vectors[i] is the embedding for chunks[i].
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error

	// Query performs a similarity search restricted by filter (nil for none)
	// and returns up to topK raw candidates with their metadata.
	Query(ctx context.Context, vector []float32, topK int, filter *corpus.Filter) ([]corpus.Candidate, error)

	// FetchAll returns the metadata of up to limit stored chunks, in no
	// particular order.
	FetchAll(ctx context.Context, limit int) ([]corpus.ChunkMetadata, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
