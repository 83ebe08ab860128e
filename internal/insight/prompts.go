package insight

// Persona selects the audience a summary is written for.
type Persona string

const (
	// PersonaScientist emphasises methodology, findings and implications.
	PersonaScientist Persona = "scientist"
	// PersonaInvestor emphasises commercial potential and readiness.
	PersonaInvestor Persona = "investor"
	// PersonaArchitect emphasises mission applications and constraints.
	PersonaArchitect Persona = "architect"
)

// personaContext maps each persona to the framing injected into the summary
// prompt.
var personaContext = map[Persona]string{
	PersonaScientist: "Provide a detailed scientific summary highlighting methodology, findings, and implications for future research.",
	PersonaInvestor:  "Provide a summary focused on commercial potential, emerging trends, technology readiness, and investment opportunities.",
	PersonaArchitect: "Provide a summary focused on practical mission applications, technical requirements, constraints, and risk factors.",
}

// ParsePersona maps a request value to a Persona. Unknown values fall back
// to PersonaScientist.
func ParsePersona(s string) Persona {
	p := Persona(s)
	if _, ok := personaContext[p]; ok {
		return p
	}
	return PersonaScientist
}

const (
	extractionSystemPrompt = "You are a precise data extraction assistant. Return only valid JSON with no markdown formatting or additional text."
	summarySystemPrompt    = "You are a research summarization expert for space biology literature. Return only valid JSON."
	consensusSystemPrompt  = "You are a research analysis expert. Return only valid JSON."
	gapSystemPrompt        = "You are a research gap analysis expert. Return only valid JSON."
)

const summaryPrompt = `%s

Based on the following research excerpts, provide a clear, concise summary.

Return ONLY valid JSON:
{
    "summary": "the summary",
    "key_points": ["point1", "point2"]
}

Research excerpts:
%s`

const consensusPrompt = `Analyze the following research excerpts about %q and identify:
1. Areas of consensus (what most papers agree on)
2. Areas of disagreement or contradiction
3. Confidence level (high/medium/low)

Return ONLY valid JSON:
{
    "consensus_points": ["point1", "point2"],
    "disagreements": ["disagreement1"],
    "confidence": "high|medium|low",
    "summary": "brief summary"
}

Research excerpts:
%s`

const gapPrompt = `Analyze this collection of space biology research and identify knowledge gaps:

Available research covers:
- Organisms: %s
- Years: %s - %s
- Topics: %s

Sample research:
%s

Identify:
1. Under-researched organisms or conditions
2. Missing experimental approaches
3. Temporal gaps (areas needing more recent research)
4. Critical questions not yet answered

Return ONLY valid JSON:
{
    "under_researched_areas": ["area1", "area2"],
    "missing_approaches": ["approach1"],
    "temporal_gaps": ["gap1"],
    "critical_questions": ["question1", "question2"]
}`

const metadataPrompt = `Extract metadata from this research paper. Return ONLY valid JSON with no markdown formatting.

Paper text:
%s

Extract:
{
    "title": "exact paper title",
    "authors": ["list", "of", "authors"],
    "year": publication_year_as_int_or_null,
    "abstract": "the abstract text",
    "organisms": ["list of organisms studied, e.g., mice, plants, bacteria"],
    "keywords": ["key", "research", "topics"],
    "experiment_type": "brief description of experiment type",
    "space_conditions": ["conditions like microgravity, radiation, etc."],
    "findings_summary": "2-3 sentence summary of key findings"
}`
