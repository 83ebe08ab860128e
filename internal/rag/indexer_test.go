package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// fakeEmbedder returns a one-dimensional vector per text and records batch sizes.
type fakeEmbedder struct {
	batches []int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, len(texts))
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

// memStore is an in-memory ChunkStore.
type memStore struct {
	chunks []Chunk
	err    error
}

func (m *memStore) Upsert(_ context.Context, chunks []Chunk, vectors [][]float32) error {
	if m.err != nil {
		return m.err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch")
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) Query(context.Context, []float32, int, *corpus.Filter) ([]corpus.Candidate, error) {
	return nil, nil
}

func (m *memStore) FetchAll(_ context.Context, limit int) ([]corpus.ChunkMetadata, error) {
	out := make([]corpus.ChunkMetadata, 0, len(m.chunks))
	for _, c := range m.chunks {
		if len(out) == limit {
			break
		}
		out = append(out, c.Metadata)
	}
	return out, nil
}

func (m *memStore) Count(context.Context) (uint64, error) { return uint64(len(m.chunks)), nil }

func (m *memStore) Close() error { return nil }

func makeChunks(n int) []Chunk {
	out := make([]Chunk, n)
	for i := range out {
		out[i] = Chunk{ID: fmt.Sprint(i), Text: fmt.Sprintf("chunk %d", i)}
	}
	return out
}

func TestNewIndexer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewIndexer(nil, &memStore{}, 0); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewIndexer(&fakeEmbedder{}, nil, 0); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestIndexer_BatchesChunks(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	store := &memStore{}
	ix, err := NewIndexer(emb, store, 0)
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}

	if err := ix.Index(context.Background(), makeChunks(250)); err != nil {
		t.Fatalf("Index: %v", err)
	}

	want := []int{100, 100, 50}
	if fmt.Sprint(emb.batches) != fmt.Sprint(want) {
		t.Errorf("batches = %v, want %v", emb.batches, want)
	}
	if n, _ := store.Count(context.Background()); n != 250 {
		t.Errorf("stored %d chunks, want 250", n)
	}
}

func TestIndexer_EmbedFailure(t *testing.T) {
	t.Parallel()

	ix, _ := NewIndexer(&fakeEmbedder{err: errors.New("model offline")}, &memStore{}, 10)

	err := ix.Index(context.Background(), makeChunks(3))
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("Index error = %v, want wrapped embed failure", err)
	}
}

func TestIndexer_StoreFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("qdrant down")
	ix, _ := NewIndexer(&fakeEmbedder{}, &memStore{err: cause}, 10)

	if err := ix.Index(context.Background(), makeChunks(3)); !errors.Is(err, cause) {
		t.Fatalf("Index error = %v, want %v", err, cause)
	}
}

func TestIndexer_Empty(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	ix, _ := NewIndexer(emb, &memStore{}, 10)

	if err := ix.Index(context.Background(), nil); err != nil {
		t.Fatalf("Index(nil) = %v", err)
	}
	if len(emb.batches) != 0 {
		t.Errorf("embedder called %d times for empty input", len(emb.batches))
	}
}
