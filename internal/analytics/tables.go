// Package analytics derives descriptive research statistics from a snapshot
// of chunk metadata: temporal trends, organism co-occurrence networks,
// emerging topics, and coverage gaps.
//
// Every analyzer is a total, pure function over frequency tables produced
// once by [Aggregate]. The tables are built fresh per request and never
// shared across requests, so analyzers may run concurrently without locking.
package analytics

import (
	"cmp"
	"slices"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// FrequencyTable maps a key to its non-negative occurrence count.
type FrequencyTable[K comparable] map[K]int

// Add increments the count for k by one.
func (t FrequencyTable[K]) Add(k K) { t[k]++ }

// Total returns the sum of all counts.
func (t FrequencyTable[K]) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// PairKey is an unordered pair of distinct organisms. A is always the
// lexicographically smaller name; construct it with [NewPairKey].
type PairKey struct {
	A string
	B string
}

// NewPairKey returns the canonical key for the pair (a, b), so that (a, b)
// and (b, a) are the same key.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// EntityYear is a composite (entity, year) key for time-indexed tables.
type EntityYear struct {
	Entity string
	Year   int
}

// Tables bundles every frequency table the analyzers consume.
type Tables struct {
	// Years counts chunks per publication year. Undated chunks are absent.
	Years FrequencyTable[int]

	// Organisms counts chunks mentioning each organism.
	Organisms FrequencyTable[string]

	// Topics counts chunks mentioning each keyword.
	Topics FrequencyTable[string]

	// Pairs counts chunks in which both organisms of a pair appear.
	Pairs FrequencyTable[PairKey]

	// OrganismYears counts dated chunks per (organism, year).
	OrganismYears FrequencyTable[EntityYear]

	// TopicYears counts dated chunks per (keyword, year).
	TopicYears FrequencyTable[EntityYear]

	// Papers counts chunks per paper ID.
	Papers FrequencyTable[string]

	// Sections counts chunks per section label.
	Sections FrequencyTable[string]

	// Chunks is the number of records aggregated.
	Chunks int
}

// Aggregate builds the frequency tables for a corpus snapshot. Missing or
// malformed fields only remove that field's contribution; a chunk without a
// year still counts towards organism and topic totals.
func Aggregate(chunks []corpus.ChunkMetadata) *Tables {
	t := &Tables{
		Years:         FrequencyTable[int]{},
		Organisms:     FrequencyTable[string]{},
		Topics:        FrequencyTable[string]{},
		Pairs:         FrequencyTable[PairKey]{},
		OrganismYears: FrequencyTable[EntityYear]{},
		TopicYears:    FrequencyTable[EntityYear]{},
		Papers:        FrequencyTable[string]{},
		Sections:      FrequencyTable[string]{},
		Chunks:        len(chunks),
	}

	for _, c := range chunks {
		organisms := corpus.Dedupe(c.Organisms)
		keywords := corpus.Dedupe(c.Keywords)

		if c.PaperID != "" {
			t.Papers.Add(c.PaperID)
		}
		if c.Section != "" {
			t.Sections.Add(c.Section)
		}
		for _, o := range organisms {
			t.Organisms.Add(o)
		}
		for _, k := range keywords {
			t.Topics.Add(k)
		}
		for i := 0; i < len(organisms); i++ {
			for j := i + 1; j < len(organisms); j++ {
				t.Pairs.Add(NewPairKey(organisms[i], organisms[j]))
			}
		}

		if !c.HasYear() {
			continue
		}
		t.Years.Add(c.Year)
		for _, o := range organisms {
			t.OrganismYears.Add(EntityYear{Entity: o, Year: c.Year})
		}
		for _, k := range keywords {
			t.TopicYears.Add(EntityYear{Entity: k, Year: c.Year})
		}
	}

	return t
}

// sortedYears returns the distinct years with a positive count, ascending.
func sortedYears(years FrequencyTable[int]) []int {
	out := make([]int, 0, len(years))
	for y, c := range years {
		if c > 0 {
			out = append(out, y)
		}
	}
	slices.Sort(out)
	return out
}

// splitRecent partitions ascending years into the last n and the rest.
func splitRecent(years []int, n int) (older, recent []int) {
	if len(years) <= n {
		return nil, years
	}
	return years[:len(years)-n], years[len(years)-n:]
}

// Ranked is a key with its count, used for top-N listings.
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// topN returns the n most frequent keys, count descending then name
// ascending. n <= 0 returns every key.
func topN(t FrequencyTable[string], n int) []Ranked {
	out := make([]Ranked, 0, len(t))
	for k, c := range t {
		out = append(out, Ranked{Name: k, Count: c})
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// rankedMap converts a ranked slice back into a map for JSON responses.
func rankedMap(r []Ranked) map[string]int {
	m := make(map[string]int, len(r))
	for _, e := range r {
		m[e.Name] = e.Count
	}
	return m
}

// timelines splits a time-indexed table into one year table per entity.
func timelines(t FrequencyTable[EntityYear]) map[string]FrequencyTable[int] {
	out := make(map[string]FrequencyTable[int])
	for k, c := range t {
		tl, ok := out[k.Entity]
		if !ok {
			tl = FrequencyTable[int]{}
			out[k.Entity] = tl
		}
		tl[k.Year] += c
	}
	return out
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func sumYears(t FrequencyTable[int], years []int) int {
	n := 0
	for _, y := range years {
		n += t[y]
	}
	return n
}
