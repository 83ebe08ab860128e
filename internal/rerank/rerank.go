// Package rerank reorders raw nearest-neighbour candidates using
// section and recency boosts, then applies a minimum relevance threshold.
//
// Rerank is a pure function: it never mutates its input and produces the same
// ordered output for the same candidates and configuration.
package rerank

import (
	"cmp"
	"slices"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// maxFetch caps the number of candidates requested from the index per query.
const maxFetch = 150

// fetchFactor is the over-fetch multiplier applied to top-k so that enough
// candidates survive threshold filtering.
const fetchFactor = 3

// Result is a candidate after reranking. Score holds the adjusted score.
type Result struct {
	// ID is the vector point identifier.
	ID string `json:"id"`
	// Score is the boosted relevance score; always >= Config.MinScore.
	Score float64 `json:"score"`
	// Text is the chunk text.
	Text string `json:"text"`
	// Metadata is the chunk metadata carried through from the candidate.
	Metadata corpus.ChunkMetadata `json:"metadata"`
}

// FetchSize returns the number of candidates to request from the index for a
// query that wants topK results: min(topK*3, 150). Non-positive topK yields 0.
func FetchSize(topK int) int {
	if topK <= 0 {
		return 0
	}
	return min(topK*fetchFactor, maxFetch)
}

// Rerank boosts, filters, orders and truncates candidates.
//
// Scoring is multiplicative on the raw similarity: SectionBoost when the
// chunk's section is in boostSections, then RecencyBoost when the chunk has a
// year >= RecencyCutoffYear. Candidates whose adjusted score falls below
// MinScore are dropped. Survivors are sorted by adjusted score descending with
// ascending ID as tie-break and at most topK are returned. Fewer survivors
// than topK are returned as-is.
func Rerank(candidates []corpus.Candidate, topK int, boostSections []string, cfg Config) []Result {
	if len(candidates) == 0 || topK <= 0 {
		return []Result{}
	}

	boost := make(map[string]struct{}, len(boostSections))
	for _, s := range boostSections {
		boost[s] = struct{}{}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		score := c.Score
		if _, ok := boost[c.Metadata.Section]; ok {
			score *= cfg.SectionBoost
		}
		if c.Metadata.HasYear() && c.Metadata.Year >= cfg.RecencyCutoffYear {
			score *= cfg.RecencyBoost
		}
		if score < cfg.MinScore {
			continue
		}
		results = append(results, Result{
			ID:       c.ID,
			Score:    score,
			Text:     c.Text,
			Metadata: c.Metadata,
		})
	}

	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
