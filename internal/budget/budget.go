// Package budget provides token budget estimation and excerpt fitting for the
// prompts sent to the research analyst. Because several LLM backends with
// different tokenizers are supported, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters of English prose.
package budget

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// It fits within 8k-context models while leaving room for the output.
	DefaultMaxContextTokens = 6000

	// excerptSeparator joins fitted excerpts in a prompt.
	excerptSeparator = "\n\n"
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Truncate cuts s to at most maxTokens estimated tokens. The cut never splits
// a multi-byte rune. maxTokens ≤ 0 yields the empty string.
func Truncate(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	limit := maxTokens * charsPerToken
	if len(s) <= limit {
		return s
	}
	// Back off to the start of the rune containing the limit byte.
	for limit > 0 && !isRuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// FitTexts joins texts with blank lines and truncates the result to
// maxTokens. Blank texts are skipped. The returned count is the number of
// texts that contributed at least one character.
func FitTexts(texts []string, maxTokens int) (string, int) {
	var sb strings.Builder
	used := 0
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(excerptSeparator)
		}
		sb.WriteString(t)
		used++
		if sb.Len() >= maxTokens*charsPerToken {
			break
		}
	}
	out := Truncate(sb.String(), maxTokens)
	if out == "" {
		return "", 0
	}
	return out, used
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
