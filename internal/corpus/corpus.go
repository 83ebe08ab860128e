// Package corpus defines the data model shared by the retrieval and analytics
// layers: chunk metadata as stored alongside each vector, similarity-scored
// candidates returned by the nearest-neighbour index, and the structured
// filter forwarded to that index.
//
// Values in this package are immutable once constructed. Decoding from loosely
// typed payloads never fails: malformed fields are dropped for the record they
// belong to and the remaining fields still contribute.
package corpus

// Canonical section labels produced by the ingestion pipeline.
const (
	SectionAbstract     = "abstract"
	SectionIntroduction = "introduction"
	SectionMethods      = "methods"
	SectionResults      = "results"
	SectionDiscussion   = "discussion"
	SectionConclusion   = "conclusion"
)

// ChunkMetadata is the topical metadata attached to a single paper chunk.
type ChunkMetadata struct {
	// PaperID identifies the source paper (file stem of the PDF).
	PaperID string `json:"paper_id"`

	// Title is the paper title extracted at ingestion time.
	Title string `json:"title,omitempty"`

	// Year is the publication year. Zero means the year is unknown.
	Year int `json:"year,omitempty"`

	// Organisms lists the organisms studied, de-duplicated in first-seen order.
	Organisms []string `json:"organisms"`

	// Keywords lists the research topics, de-duplicated in first-seen order.
	Keywords []string `json:"keywords"`

	// Section is the paper section the chunk was taken from (e.g. "abstract").
	Section string `json:"section"`

	// SpaceConditions lists the experimental conditions (microgravity,
	// radiation, ...), de-duplicated in first-seen order.
	SpaceConditions []string `json:"space_conditions"`

	// ExperimentType is a free-text description of the experiment.
	ExperimentType string `json:"experiment_type,omitempty"`

	// ChunkIndex is the position of the chunk within its paper.
	ChunkIndex int `json:"chunk_index"`
}

// HasYear reports whether the chunk carries a usable publication year.
func (m ChunkMetadata) HasYear() bool { return ValidYear(m.Year) }

// Candidate is a raw similarity-scored match returned by the vector index,
// before any reranking.
type Candidate struct {
	// ID is the vector point identifier.
	ID string

	// Score is the cosine similarity reported by the index, in [0, 1].
	Score float64

	// Text is the chunk text stored in the point payload.
	Text string

	// Metadata is the decoded chunk metadata.
	Metadata ChunkMetadata
}

// Filter holds the structured predicates forwarded to the vector index.
// Zero-valued fields are not applied.
type Filter struct {
	// Year restricts matches to a single publication year.
	Year int `json:"year,omitempty"`

	// Organisms restricts matches to chunks mentioning any of these organisms.
	Organisms []string `json:"organisms,omitempty"`

	// Section restricts matches to a single paper section.
	Section string `json:"section,omitempty"`
}

// IsEmpty reports whether the filter has no predicates.
func (f *Filter) IsEmpty() bool {
	return f == nil || (f.Year == 0 && len(f.Organisms) == 0 && f.Section == "")
}

// Dedupe returns values with blanks and duplicates removed, preserving the
// order in which each value was first seen.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
