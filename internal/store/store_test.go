package store

import (
	"context"
	"testing"
	"time"
)

// openTestCache opens an in-memory SQLiteCache for use in tests.
func openTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory cache: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Cache_PutAndGet(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)
	ctx := context.Background()

	at := time.Unix(1_700_000_000, 0)
	want := Paper{
		PaperID:     "PMC123",
		FilePath:    "PMC123.pdf",
		Title:       "Bone loss in microgravity",
		Year:        2021,
		ChunkCount:  12,
		Metadata:    `{"title":"Bone loss in microgravity"}`,
		ProcessedAt: at,
	}
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "PMC123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("get: want record, got none")
	}
	if !got.ProcessedAt.Equal(want.ProcessedAt) {
		t.Errorf("ProcessedAt: got %v, want %v", got.ProcessedAt, want.ProcessedAt)
	}
	got.ProcessedAt = want.ProcessedAt
	if got != want {
		t.Errorf("get: got %+v, want %+v", got, want)
	}
}

func Test_Cache_GetMissing(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)

	_, ok, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("get: want no record")
	}
}

func Test_Cache_PutReplaces(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)
	ctx := context.Background()

	if err := s.Put(ctx, Paper{PaperID: "p1", FilePath: "p1.pdf", ChunkCount: 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, Paper{PaperID: "p1", FilePath: "p1.pdf", ChunkCount: 9}); err != nil {
		t.Fatalf("put again: %v", err)
	}

	got, _, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChunkCount != 9 {
		t.Errorf("ChunkCount: want 9, got %d", got.ChunkCount)
	}
	if got.Metadata != "{}" {
		t.Errorf("Metadata: want {}, got %q", got.Metadata)
	}
	if got.ProcessedAt.IsZero() {
		t.Error("ProcessedAt: want set on put")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count: want 1, got %d", n)
	}
}

func Test_Cache_PutRequiresID(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)

	if err := s.Put(context.Background(), Paper{FilePath: "x.pdf"}); err == nil {
		t.Error("put: want error for empty paper ID")
	}
}

func Test_Cache_ListOrderedAndDelete(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := s.Put(ctx, Paper{PaperID: id, FilePath: id + ".pdf"}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	papers, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("list: want 2 papers, got %d", len(papers))
	}
	if papers[0].PaperID != "a" || papers[1].PaperID != "c" {
		t.Errorf("list: want [a c], got [%s %s]", papers[0].PaperID, papers[1].PaperID)
	}
}

func Test_Cache_EmptyList(t *testing.T) {
	t.Parallel()
	s := openTestCache(t)

	papers, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("want 0 papers, got %d", len(papers))
	}
}
