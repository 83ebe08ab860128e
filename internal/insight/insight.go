// Package insight turns retrieved paper excerpts into LLM-written research
// digests: persona summaries, consensus analysis, qualitative gap narratives,
// and structured paper metadata for the ingestion pipeline.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/sbke-go/internal/budget"
	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/logging"
)

// Excerpt caps per operation, in number of texts.
const (
	summaryMaxTexts   = 5
	consensusMaxTexts = 8
	gapMaxTexts       = 10
	gapContextValues  = 10
)

// Token budgets for the excerpt block of each prompt.
const (
	summaryTokens   = 1500
	consensusTokens = 1500
	gapTokens       = 1000
	metadataTokens  = 2000
)

// noResultsSummary is returned by Summarize when there is nothing to digest.
const noResultsSummary = "No results to summarize"

// Generator is the subset of an eino chat model the Analyst needs.
// model.BaseChatModel satisfies it.
type Generator interface {
	// Generate returns a single completion for the given messages.
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config holds the dependencies required to construct an Analyst.
type Config struct {
	// Model is the chat model constructed by the provider factory.
	Model Generator
}

// Analyst produces LLM-written research insights. It is stateless and safe
// for concurrent use.
type Analyst struct {
	// model is the underlying chat model.
	model Generator
}

// New constructs an Analyst from the provided Config.
func New(cfg *Config) (*Analyst, error) {
	if cfg == nil || cfg.Model == nil {
		return nil, fmt.Errorf("insight: Model must not be nil")
	}
	return &Analyst{model: cfg.Model}, nil
}

// Summarize writes a persona-specific summary of the first five texts.
// Blank texts are skipped. When no usable text remains the model is not
// called and a fixed "no results" summary is returned.
func (a *Analyst) Summarize(ctx context.Context, texts []string, persona Persona) (*Summary, error) {
	persona = ParsePersona(string(persona))
	excerpts, used := budget.FitTexts(head(texts, summaryMaxTexts), summaryTokens)
	if used == 0 {
		return &Summary{Summary: noResultsSummary, KeyPoints: []string{}, Persona: persona}, nil
	}

	prompt := fmt.Sprintf(summaryPrompt, personaContext[persona], excerpts)
	out, err := a.complete(ctx, "summarize", summarySystemPrompt, prompt, 0.3)
	if err != nil {
		return nil, err
	}

	s, err := parseJSON[Summary](out)
	if err != nil {
		// A plain-prose answer is still a usable summary.
		s = &Summary{Summary: strings.TrimSpace(out)}
	}
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}
	s.Persona = persona
	s.PapersAnalyzed = used
	return s, nil
}

// Consensus identifies agreement and disagreement about topic across the
// first eight texts.
func (a *Analyst) Consensus(ctx context.Context, topic string, texts []string) (*ConsensusAnalysis, error) {
	excerpts, used := budget.FitTexts(head(texts, consensusMaxTexts), consensusTokens)
	if used == 0 {
		return nil, fmt.Errorf("insight: consensus: no excerpt text to analyze")
	}

	prompt := fmt.Sprintf(consensusPrompt, topic, excerpts)
	out, err := a.complete(ctx, "consensus", consensusSystemPrompt, prompt, 0.2)
	if err != nil {
		return nil, err
	}

	c, err := parseJSON[ConsensusAnalysis](out)
	if err != nil {
		return nil, fmt.Errorf("insight: consensus: %w", err)
	}
	return c, nil
}

// GapNarrative asks the model for qualitative research gaps. The prompt
// carries the first ten texts plus the organisms, year range and topics found
// in chunks.
func (a *Analyst) GapNarrative(ctx context.Context, texts []string, chunks []corpus.ChunkMetadata) (*GapNarrative, error) {
	excerpts, _ := budget.FitTexts(head(texts, gapMaxTexts), gapTokens)
	organisms, topics, minYear, maxYear := gapContext(chunks)

	prompt := fmt.Sprintf(gapPrompt,
		strings.Join(organisms, ", "),
		minYear, maxYear,
		strings.Join(topics, ", "),
		excerpts,
	)
	out, err := a.complete(ctx, "gap narrative", gapSystemPrompt, prompt, 0.3)
	if err != nil {
		return nil, err
	}

	g, err := parseJSON[GapNarrative](out)
	if err != nil {
		return nil, fmt.Errorf("insight: gap narrative: %w", err)
	}
	return g, nil
}

// ExtractPaperMetadata asks the model for the structured metadata of a paper
// given its full text. The paper ID is the file stem of fileName.
func (a *Analyst) ExtractPaperMetadata(ctx context.Context, text, fileName string) (*PaperMetadata, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("insight: extract metadata: %s has no text", fileName)
	}

	prompt := fmt.Sprintf(metadataPrompt, budget.Truncate(text, metadataTokens))
	out, err := a.complete(ctx, "extract metadata", extractionSystemPrompt, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	raw, err := parseJSON[rawPaperMetadata](out)
	if err != nil {
		return nil, fmt.Errorf("insight: extract metadata: %s: %w", fileName, err)
	}

	base := filepath.Base(fileName)
	year, _ := corpus.CoerceYear(raw.Year)
	return &PaperMetadata{
		PaperID:         strings.TrimSuffix(base, filepath.Ext(base)),
		FilePath:        base,
		Title:           strings.TrimSpace(raw.Title),
		Authors:         corpus.Dedupe(raw.Authors),
		Year:            year,
		Abstract:        strings.TrimSpace(raw.Abstract),
		Organisms:       corpus.Dedupe(raw.Organisms),
		Keywords:        corpus.Dedupe(raw.Keywords),
		ExperimentType:  strings.TrimSpace(raw.ExperimentType),
		SpaceConditions: corpus.Dedupe(raw.SpaceConditions),
		FindingsSummary: strings.TrimSpace(raw.FindingsSummary),
	}, nil
}

// complete sends a system+user prompt pair and returns the response text.
func (a *Analyst) complete(ctx context.Context, op, system, prompt string, temperature float32) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	}
	logging.FromContext(ctx).Debug("insight: generating",
		slog.String("op", op),
		slog.Int("estimated_tokens", budget.EstimateMessages(messages)),
	)

	msg, err := a.model.Generate(ctx, messages, model.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("insight: %s: %w: %w", op, ErrGenerate, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("insight: %s: %w: empty response", op, ErrMalformedOutput)
	}
	return msg.Content, nil
}

// gapContext summarises chunks for the gap prompt: up to ten organisms and
// topics in first-seen order and the observed year range ("unknown" when no
// chunk is dated).
func gapContext(chunks []corpus.ChunkMetadata) (organisms, topics []string, minYear, maxYear string) {
	var orgs, tops []string
	lo, hi := 0, 0
	for _, c := range chunks {
		orgs = append(orgs, c.Organisms...)
		tops = append(tops, c.Keywords...)
		if !c.HasYear() {
			continue
		}
		if lo == 0 || c.Year < lo {
			lo = c.Year
		}
		if c.Year > hi {
			hi = c.Year
		}
	}

	organisms = head(corpus.Dedupe(orgs), gapContextValues)
	topics = head(corpus.Dedupe(tops), gapContextValues)
	if lo == 0 {
		return organisms, topics, "unknown", "unknown"
	}
	return organisms, topics, strconv.Itoa(lo), strconv.Itoa(hi)
}

// head returns at most the first n elements of s.
func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
