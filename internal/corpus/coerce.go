package corpus

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Publication years outside [MinYear, MaxYear] are treated as absent.
const (
	MinYear = 1800
	MaxYear = 2100
)

// ValidYear reports whether y is a plausible publication year.
func ValidYear(y int) bool { return y >= MinYear && y <= MaxYear }

// CoerceYear converts a loosely typed year value into an integer year.
// Integers, integral floats, json.Number and numeric strings ("2021",
// "2021.0") are accepted. Non-integral floats are truncated. Anything else,
// including years outside [MinYear, MaxYear], reports false.
func CoerceYear(v any) (int, bool) {
	var year int
	switch t := v.(type) {
	case int:
		year = t
	case int32:
		year = int(t)
	case int64:
		year = int(t)
	case uint32:
		year = int(t)
	case uint64:
		if t > MaxYear {
			return 0, false
		}
		year = int(t)
	case float32:
		return coerceFloat(float64(t))
	case float64:
		return coerceFloat(t)
	case json.Number:
		return coerceString(t.String())
	case string:
		return coerceString(t)
	default:
		return 0, false
	}
	if !ValidYear(year) {
		return 0, false
	}
	return year, true
}

func coerceString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return CoerceYear(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return coerceFloat(f)
}

func coerceFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < MinYear || f >= MaxYear+1 {
		return 0, false
	}
	return int(f), true
}

// coerceInt is CoerceYear without the year window, used for
// counters such as chunk_index.
func coerceInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i
		}
	}
	return 0
}

// coerceStrings accepts a list of strings (as []string or []any) or a single
// string and returns the de-duplicated non-empty entries. Non-string list
// elements are dropped.
func coerceStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return Dedupe(trimAll(t))
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return Dedupe(trimAll(out))
	case string:
		return Dedupe([]string{strings.TrimSpace(t)})
	default:
		return nil
	}
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func payloadString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// FromPayload decodes chunk metadata from a loosely typed key/value payload,
// as stored in a vector point or posted back by a client. Unknown keys are
// ignored; malformed values are dropped for this record only.
func FromPayload(p map[string]any) ChunkMetadata {
	m := ChunkMetadata{
		PaperID:         payloadString(p["paper_id"]),
		Title:           payloadString(p["title"]),
		Organisms:       coerceStrings(p["organisms"]),
		Keywords:        coerceStrings(p["keywords"]),
		Section:         strings.ToLower(payloadString(p["section"])),
		SpaceConditions: coerceStrings(p["space_conditions"]),
		ExperimentType:  payloadString(p["experiment_type"]),
		ChunkIndex:      coerceInt(p["chunk_index"]),
	}
	if y, ok := CoerceYear(p["year"]); ok {
		m.Year = y
	}
	return m
}

// Payload is the inverse of FromPayload. List values are emitted as []any so
// the result can be handed to payload encoders that only understand generic
// lists.
func (m ChunkMetadata) Payload() map[string]any {
	p := map[string]any{
		"paper_id":         m.PaperID,
		"title":            m.Title,
		"organisms":        anyList(m.Organisms),
		"keywords":         anyList(m.Keywords),
		"section":          m.Section,
		"space_conditions": anyList(m.SpaceConditions),
		"experiment_type":  m.ExperimentType,
		"chunk_index":      int64(m.ChunkIndex),
	}
	if m.HasYear() {
		p["year"] = int64(m.Year)
	}
	return p
}

func anyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
