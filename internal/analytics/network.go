package analytics

import (
	"cmp"
	"slices"
)

// CollaborationEdge is the co-occurrence strength of two organisms.
type CollaborationEdge struct {
	Organism1     string  `json:"organism1"`
	Organism2     string  `json:"organism2"`
	CoOccurrences int     `json:"co_occurrences"`
	Strength      float64 `json:"strength"`
}

// BuildNetwork turns pair counts into edges. Strength is the co-occurrence
// count normalised by the smaller of the two organism totals, rounded to 3
// decimals. Pairs whose organisms have no recorded total are skipped. Edges
// are ordered by co-occurrence descending, then by name, and truncated to
// limit when limit > 0.
func BuildNetwork(pairs FrequencyTable[PairKey], organisms FrequencyTable[string], limit int) []CollaborationEdge {
	edges := make([]CollaborationEdge, 0, len(pairs))
	for p, co := range pairs {
		denom := min(organisms[p.A], organisms[p.B])
		if denom <= 0 {
			continue
		}
		edges = append(edges, CollaborationEdge{
			Organism1:     p.A,
			Organism2:     p.B,
			CoOccurrences: co,
			Strength:      round(float64(co)/float64(denom), 3),
		})
	}

	slices.SortFunc(edges, func(a, b CollaborationEdge) int {
		if c := cmp.Compare(b.CoOccurrences, a.CoOccurrences); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Organism1, b.Organism1); c != 0 {
			return c
		}
		return cmp.Compare(a.Organism2, b.Organism2)
	})

	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges
}
