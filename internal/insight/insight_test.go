package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// fakeGenerator returns a canned response and records the last prompt.
type fakeGenerator struct {
	response string
	err      error
	calls    int
	messages []*schema.Message
}

func (f *fakeGenerator) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.messages = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.response, nil), nil
}

func (f *fakeGenerator) userPrompt() string {
	if len(f.messages) < 2 {
		return ""
	}
	return f.messages[1].Content
}

func newAnalyst(t *testing.T, g *fakeGenerator) *Analyst {
	t.Helper()
	a, err := New(&Config{Model: g})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_RequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := New(&Config{}); err == nil {
		t.Error("New() expected error for nil model")
	}
	if _, err := New(nil); err == nil {
		t.Error("New(nil) expected error")
	}
}

// ── Summarize ────────────────────────────────────────────────────────────────

func TestSummarize_ParsesJSON(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: "```json\n{\"summary\": \"Bone loss.\", \"key_points\": [\"a\", \"b\"]}\n```"}
	a := newAnalyst(t, g)

	s, err := a.Summarize(context.Background(), []string{"t1", "t2"}, PersonaInvestor)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Summary != "Bone loss." {
		t.Errorf("Summary = %q", s.Summary)
	}
	if len(s.KeyPoints) != 2 {
		t.Errorf("len(KeyPoints) = %d, want 2", len(s.KeyPoints))
	}
	if s.Persona != PersonaInvestor {
		t.Errorf("Persona = %q, want investor", s.Persona)
	}
	if s.PapersAnalyzed != 2 {
		t.Errorf("PapersAnalyzed = %d, want 2", s.PapersAnalyzed)
	}
	if !strings.Contains(g.userPrompt(), "commercial potential") {
		t.Error("investor framing missing from prompt")
	}
}

func TestSummarize_OnlyFirstFiveTexts(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: `{"summary": "ok", "key_points": []}`}
	a := newAnalyst(t, g)

	texts := []string{"one", "two", "three", "four", "five", "six"}
	s, err := a.Summarize(context.Background(), texts, PersonaScientist)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Contains(g.userPrompt(), "six") {
		t.Error("sixth text must not reach the prompt")
	}
	if s.PapersAnalyzed != 5 {
		t.Errorf("PapersAnalyzed = %d, want 5", s.PapersAnalyzed)
	}
}

func TestSummarize_UnknownPersonaFallsBackToScientist(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: `{"summary": "ok"}`}
	a := newAnalyst(t, g)

	s, err := a.Summarize(context.Background(), []string{"text"}, Persona("pirate"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Persona != PersonaScientist {
		t.Errorf("Persona = %q, want scientist", s.Persona)
	}
	if s.KeyPoints == nil {
		t.Error("KeyPoints must not be nil")
	}
}

func TestSummarize_NoTextSkipsModel(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{}
	a := newAnalyst(t, g)

	s, err := a.Summarize(context.Background(), []string{"", "   "}, PersonaArchitect)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if g.calls != 0 {
		t.Errorf("model called %d times, want 0", g.calls)
	}
	if s.Summary != noResultsSummary {
		t.Errorf("Summary = %q", s.Summary)
	}
}

func TestSummarize_ProseFallback(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: "Plain prose answer."}
	a := newAnalyst(t, g)

	s, err := a.Summarize(context.Background(), []string{"text"}, PersonaScientist)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Summary != "Plain prose answer." {
		t.Errorf("Summary = %q", s.Summary)
	}
}

func TestSummarize_ModelError(t *testing.T) {
	t.Parallel()

	cause := errors.New("rate limited")
	a := newAnalyst(t, &fakeGenerator{err: cause})

	_, err := a.Summarize(context.Background(), []string{"text"}, PersonaScientist)
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped %v", err, cause)
	}
}

// ── Consensus ────────────────────────────────────────────────────────────────

func TestConsensus(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: `Here you go: {"consensus_points": ["x"], "disagreements": [], "confidence": "medium", "summary": "s"}`}
	a := newAnalyst(t, g)

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "excerpt-" + string(rune('a'+i))
	}
	c, err := a.Consensus(context.Background(), "bone density", texts)
	if err != nil {
		t.Fatalf("Consensus() error = %v", err)
	}
	if c.Confidence != "medium" || len(c.ConsensusPoints) != 1 {
		t.Errorf("Consensus() = %+v", c)
	}
	prompt := g.userPrompt()
	if !strings.Contains(prompt, `"bone density"`) {
		t.Error("topic missing from prompt")
	}
	if !strings.Contains(prompt, "excerpt-h") || strings.Contains(prompt, "excerpt-i") {
		t.Error("prompt must carry exactly the first eight texts")
	}
}

func TestConsensus_MalformedOutput(t *testing.T) {
	t.Parallel()

	a := newAnalyst(t, &fakeGenerator{response: "not json at all"})

	_, err := a.Consensus(context.Background(), "topic", []string{"text"})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("error = %v, want ErrMalformedOutput", err)
	}
}

func TestConsensus_NoText(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{}
	a := newAnalyst(t, g)

	if _, err := a.Consensus(context.Background(), "topic", nil); err == nil {
		t.Error("Consensus() expected error for no text")
	}
	if g.calls != 0 {
		t.Errorf("model called %d times, want 0", g.calls)
	}
}

// ── GapNarrative ─────────────────────────────────────────────────────────────

func TestGapNarrative(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: `{"under_researched_areas": ["fungi"], "missing_approaches": [], "temporal_gaps": ["2015"], "critical_questions": ["why"]}`}
	a := newAnalyst(t, g)

	chunks := []corpus.ChunkMetadata{
		{Year: 2019, Organisms: []string{"mouse"}, Keywords: []string{"bone"}},
		{Year: 2012, Organisms: []string{"rat", "mouse"}, Keywords: []string{"muscle"}},
		{Organisms: []string{"yeast"}},
	}
	n, err := a.GapNarrative(context.Background(), []string{"sample"}, chunks)
	if err != nil {
		t.Fatalf("GapNarrative() error = %v", err)
	}
	if len(n.UnderResearchedAreas) != 1 || len(n.CriticalQuestions) != 1 {
		t.Errorf("GapNarrative() = %+v", n)
	}
	prompt := g.userPrompt()
	for _, want := range []string{"mouse, rat, yeast", "2012 - 2019", "bone, muscle"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGapContext_UnknownYears(t *testing.T) {
	t.Parallel()

	_, _, lo, hi := gapContext([]corpus.ChunkMetadata{{Organisms: []string{"mouse"}}})
	if lo != "unknown" || hi != "unknown" {
		t.Errorf("year range = %s - %s, want unknown - unknown", lo, hi)
	}
}

// ── ExtractPaperMetadata ─────────────────────────────────────────────────────

func TestExtractPaperMetadata(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{response: `{
  "title": " Microgravity and Bone ",
  "authors": ["A. Smith", "A. Smith", "B. Jones"],
  "year": "2021",
  "abstract": "We studied mice.",
  "organisms": ["mouse"],
  "keywords": ["bone", "osteoclast"],
  "experiment_type": "spaceflight",
  "space_conditions": ["microgravity"],
  "findings_summary": "Bone was lost."
}`}
	a := newAnalyst(t, g)

	m, err := a.ExtractPaperMetadata(context.Background(), "full text", "data/pdfs/PMC123.pdf")
	if err != nil {
		t.Fatalf("ExtractPaperMetadata() error = %v", err)
	}
	if m.PaperID != "PMC123" {
		t.Errorf("PaperID = %q, want PMC123", m.PaperID)
	}
	if m.FilePath != "PMC123.pdf" {
		t.Errorf("FilePath = %q, want PMC123.pdf", m.FilePath)
	}
	if m.Title != "Microgravity and Bone" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.Year != 2021 {
		t.Errorf("Year = %d, want 2021", m.Year)
	}
	if len(m.Authors) != 2 {
		t.Errorf("Authors = %v, want de-duplicated", m.Authors)
	}
}

func TestExtractPaperMetadata_NullYear(t *testing.T) {
	t.Parallel()

	a := newAnalyst(t, &fakeGenerator{response: `{"title": "T", "year": null}`})

	m, err := a.ExtractPaperMetadata(context.Background(), "text", "p.pdf")
	if err != nil {
		t.Fatalf("ExtractPaperMetadata() error = %v", err)
	}
	if m.Year != 0 {
		t.Errorf("Year = %d, want 0", m.Year)
	}
}

func TestExtractPaperMetadata_EmptyText(t *testing.T) {
	t.Parallel()

	g := &fakeGenerator{}
	a := newAnalyst(t, g)

	if _, err := a.ExtractPaperMetadata(context.Background(), "  ", "p.pdf"); err == nil {
		t.Error("expected error for empty text")
	}
	if g.calls != 0 {
		t.Errorf("model called %d times, want 0", g.calls)
	}
}

func TestComplete_EmptyResponse(t *testing.T) {
	t.Parallel()

	a := newAnalyst(t, &fakeGenerator{response: "   "})

	_, err := a.Consensus(context.Background(), "topic", []string{"text"})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("error = %v, want ErrMalformedOutput", err)
	}
}
