package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/rerank"
)

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type fakeIndex struct {
	candidates []corpus.Candidate
	err        error
	gotTopK    int
	gotFilter  *corpus.Filter
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int, filter *corpus.Filter) ([]corpus.Candidate, error) {
	f.gotTopK = topK
	f.gotFilter = filter
	return f.candidates, f.err
}

func newService(t *testing.T, e Embedder, idx CandidateIndex) *Service {
	t.Helper()
	svc, err := NewService(e, idx, rerank.DefaultConfig())
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, &fakeIndex{}, rerank.DefaultConfig())
	require.Error(t, err)
	_, err = NewService(&fakeEmbedder{}, nil, rerank.DefaultConfig())
	require.Error(t, err)
}

func TestSearch_Reranks(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{candidates: []corpus.Candidate{
		{ID: "A", Score: 0.40, Metadata: corpus.ChunkMetadata{Section: "methods", Year: 2018}},
		{ID: "B", Score: 0.38, Metadata: corpus.ChunkMetadata{Section: "results", Year: 2021}},
		{ID: "C", Score: 0.20, Metadata: corpus.ChunkMetadata{Section: "abstract"}},
	}}
	emb := &fakeEmbedder{}
	svc := newService(t, emb, idx)

	filter := &corpus.Filter{Year: 2021}
	resp, err := svc.Search(context.Background(), Query{Text: "  bone loss  ", TopK: 5, Filter: filter})
	require.NoError(t, err)

	assert.Equal(t, []string{"bone loss"}, emb.texts)
	assert.Equal(t, 15, idx.gotTopK)
	assert.Same(t, filter, idx.gotFilter)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "B", resp.Results[0].ID)
	assert.InDelta(t, 0.38*1.15*1.05, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "A", resp.Results[1].ID)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "bone loss", resp.Query)
}

func TestSearch_TopKDefaultsAndCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		topK      int
		wantFetch int
	}{
		{"default", 0, 30},
		{"negative", -3, 30},
		{"explicit", 4, 12},
		{"capped", 500, 150},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			idx := &fakeIndex{}
			svc := newService(t, &fakeEmbedder{}, idx)

			resp, err := svc.Search(context.Background(), Query{Text: "q", TopK: tc.topK})
			require.NoError(t, err)
			assert.Equal(t, tc.wantFetch, idx.gotTopK)
			assert.NotNil(t, resp.Results)
			assert.Zero(t, resp.Count)
		})
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	svc := newService(t, emb, &fakeIndex{})

	_, err := svc.Search(context.Background(), Query{Text: "   "})
	require.Error(t, err)
	assert.Nil(t, emb.texts)
}

func TestSearch_EmbedFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("embedding backend down")
	svc := newService(t, &fakeEmbedder{err: cause}, &fakeIndex{})

	resp, err := svc.Search(context.Background(), Query{Text: "q"})

	assert.Nil(t, resp)
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "embed query", re.Op)
	assert.ErrorIs(t, err, cause)
}

func TestSearch_IndexFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("qdrant unavailable")
	svc := newService(t, &fakeEmbedder{}, &fakeIndex{err: cause})

	_, err := svc.Search(context.Background(), Query{Text: "q"})

	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "query index", re.Op)
	assert.ErrorIs(t, err, cause)
}

func TestClampTopK(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTopK, clampTopK(0))
	assert.Equal(t, 7, clampTopK(7))
	assert.Equal(t, MaxTopK, clampTopK(MaxTopK+1))
}
