package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// payloadText is the payload key holding the chunk text. All other payload
// keys are chunk metadata.
const payloadText = "text"

// scrollPageSize is the number of points requested per Scroll call when
// reading a corpus snapshot.
const scrollPageSize = 256

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements ChunkStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use ChunkStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name must not be empty")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return store, nil
}

// Client exposes the underlying gRPC client for health checks.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// Upsert stores or updates a batch of chunks with their embeddings.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("qdrant: upsert: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(c.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(chunkPayload(c)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Query performs a cosine similarity search and returns up to topK candidates.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int, filter *corpus.Filter) ([]corpus.Candidate, error) {
	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query failed: %w", err)
	}

	candidates := make([]corpus.Candidate, 0, len(results))
	for _, r := range results {
		payload := decodePayload(r.GetPayload())
		text, _ := payload[payloadText].(string)
		candidates = append(candidates, corpus.Candidate{
			ID:       pointID(r.GetId()),
			Score:    float64(r.GetScore()),
			Text:     text,
			Metadata: corpus.FromPayload(payload),
		})
	}

	return candidates, nil
}

// FetchAll scrolls through the collection and returns the metadata of up to
// limit points.
func (s *QdrantStore) FetchAll(ctx context.Context, limit int) ([]corpus.ChunkMetadata, error) {
	if limit <= 0 {
		return []corpus.ChunkMetadata{}, nil
	}
	out := make([]corpus.ChunkMetadata, 0, min(limit, scrollPageSize))

	var offset *qdrant.PointId
	for len(out) < limit {
		want := min(scrollPageSize, limit-len(out))
		// The scroll offset is inclusive, so later pages re-read the last
		// point of the previous page.
		page := uint32(want)
		if offset != nil {
			page++
		}

		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.cfg.Collection,
			Offset:         offset,
			Limit:          &page,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: scroll failed: %w", err)
		}
		if offset != nil && len(points) > 0 {
			points = points[1:]
		}

		for _, p := range points {
			out = append(out, corpus.FromPayload(decodePayload(p.GetPayload())))
		}
		if len(points) < want {
			break
		}
		offset = points[len(points)-1].GetId()
	}

	return out, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count failed: %w", err)
	}
	return n, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// buildFilter translates a corpus.Filter into Qdrant Must conditions:
// integer equality on year, keyword equality on section, and any-of keyword
// matching on organisms. A nil or empty filter yields nil.
func buildFilter(f *corpus.Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var must []*qdrant.Condition
	if f.Year > 0 {
		must = append(must, qdrant.NewMatchInt("year", int64(f.Year)))
	}
	if organisms := corpus.Dedupe(f.Organisms); len(organisms) > 0 {
		must = append(must, qdrant.NewMatchKeywords("organisms", organisms...))
	}
	if f.Section != "" {
		must = append(must, qdrant.NewMatch("section", f.Section))
	}
	return &qdrant.Filter{Must: must}
}

// chunkPayload builds the point payload for c: its metadata plus the text.
func chunkPayload(c Chunk) map[string]any {
	p := c.Metadata.Payload()
	p[payloadText] = c.Text
	return p
}

// decodePayload converts a Qdrant payload into plain Go values so it can be
// decoded by corpus.FromPayload.
func decodePayload(p map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_ListValue:
		values := k.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, e := range values {
			list = append(list, decodeValue(e))
		}
		return list
	case *qdrant.Value_StructValue:
		return decodePayload(k.StructValue.GetFields())
	default:
		return nil
	}
}

// pointID renders a point ID as a string, whether UUID or numeric.
func pointID(id *qdrant.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
