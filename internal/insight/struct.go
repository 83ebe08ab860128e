package insight

// Summary is a persona-specific digest of search result excerpts.
type Summary struct {
	// Summary is the prose digest.
	Summary string `json:"summary"`
	// KeyPoints lists the main takeaways.
	KeyPoints []string `json:"key_points"`
	// Persona is the audience the digest was written for.
	Persona Persona `json:"persona"`
	// PapersAnalyzed is the number of excerpts the model saw.
	PapersAnalyzed int `json:"papers_analyzed"`
}

// ConsensusAnalysis reports where a set of excerpts agree and disagree.
type ConsensusAnalysis struct {
	// ConsensusPoints lists findings most excerpts agree on.
	ConsensusPoints []string `json:"consensus_points"`
	// Disagreements lists contradictions between excerpts.
	Disagreements []string `json:"disagreements"`
	// Confidence is the model's confidence: high, medium or low.
	Confidence string `json:"confidence"`
	// Summary is a brief prose summary.
	Summary string `json:"summary"`
}

// GapNarrative is the qualitative half of a gap analysis.
type GapNarrative struct {
	// UnderResearchedAreas lists organisms or conditions needing more study.
	UnderResearchedAreas []string `json:"under_researched_areas"`
	// MissingApproaches lists experimental approaches absent from the corpus.
	MissingApproaches []string `json:"missing_approaches"`
	// TemporalGaps lists areas needing more recent research.
	TemporalGaps []string `json:"temporal_gaps"`
	// CriticalQuestions lists open questions.
	CriticalQuestions []string `json:"critical_questions"`
}

// PaperMetadata is the structured description of one paper, extracted by
// the model at ingestion time.
type PaperMetadata struct {
	// PaperID is the file stem of the source PDF.
	PaperID string `json:"paper_id"`
	// FilePath is the source file name.
	FilePath string `json:"file_path"`
	// Title is the paper title.
	Title string `json:"title"`
	// Authors lists the paper authors.
	Authors []string `json:"authors"`
	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty"`
	// Abstract is the abstract text.
	Abstract string `json:"abstract"`
	// Organisms lists the organisms studied.
	Organisms []string `json:"organisms"`
	// Keywords lists the research topics.
	Keywords []string `json:"keywords"`
	// ExperimentType briefly describes the experiment.
	ExperimentType string `json:"experiment_type"`
	// SpaceConditions lists conditions such as microgravity or radiation.
	SpaceConditions []string `json:"space_conditions"`
	// FindingsSummary is a short summary of the key findings.
	FindingsSummary string `json:"findings_summary"`
}

// rawPaperMetadata mirrors PaperMetadata with a loosely typed year, since
// models return it as a number, a string or null.
type rawPaperMetadata struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Year            any      `json:"year"`
	Abstract        string   `json:"abstract"`
	Organisms       []string `json:"organisms"`
	Keywords        []string `json:"keywords"`
	ExperimentType  string   `json:"experiment_type"`
	SpaceConditions []string `json:"space_conditions"`
	FindingsSummary string   `json:"findings_summary"`
}
