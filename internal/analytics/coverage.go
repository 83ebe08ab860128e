package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// GapType classifies a coverage gap.
type GapType string

// Gap types reported by AnalyzeCoverage.
const (
	GapOrganism GapType = "organism"
	GapTopic    GapType = "topic"
	GapTemporal GapType = "temporal"
)

// reasonNoPublications is the reason attached to every temporal gap.
const reasonNoPublications = "no publications in this year"

// GapRecord is an under-represented organism, topic or year.
type GapRecord struct {
	Type       GapType `json:"type"`
	Area       string  `json:"area"`
	PaperCount int     `json:"paper_count"`
	Severity   int     `json:"severity_score"`
	Reason     string  `json:"reason"`
}

// AnalyzeCoverage flags organisms and topics whose count falls below a
// fraction of the mean count, and missing years inside the observed range.
//
// Severity for organism and topic gaps is 10 - floor(count/mean*10), clamped
// to [0, 10]. Missing years need at least three observed years and carry
// cfg.TemporalGapSeverity. Records are ordered by severity descending, then by
// type and area, and truncated to cfg.MaxGaps.
func AnalyzeCoverage(organisms, topics FrequencyTable[string], years FrequencyTable[int], cfg Config) []GapRecord {
	gaps := []GapRecord{}
	gaps = append(gaps, entityGaps(GapOrganism, organisms, cfg.OrganismGapRatio)...)
	gaps = append(gaps, entityGaps(GapTopic, topics, cfg.TopicGapRatio)...)
	gaps = append(gaps, temporalGaps(years, cfg.TemporalGapSeverity, cfg.MaxGaps)...)

	slices.SortFunc(gaps, func(a, b GapRecord) int {
		if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.Area, b.Area)
	})

	if cfg.MaxGaps > 0 && len(gaps) > cfg.MaxGaps {
		gaps = gaps[:cfg.MaxGaps]
	}
	return gaps
}

func entityGaps(kind GapType, counts FrequencyTable[string], ratio float64) []GapRecord {
	values := make([]int, 0, len(counts))
	for _, c := range counts {
		values = append(values, c)
	}
	avg := mean(values)
	if avg <= 0 {
		return nil
	}

	var out []GapRecord
	for name, count := range counts {
		if float64(count) >= avg*ratio {
			continue
		}
		out = append(out, GapRecord{
			Type:       kind,
			Area:       name,
			PaperCount: count,
			Severity:   severity(count, avg),
			Reason:     fmt.Sprintf("%d mentions against a corpus average of %.1f", count, avg),
		})
	}
	return out
}

func severity(count int, avg float64) int {
	s := 10 - int(math.Floor(float64(count)/avg*10))
	return max(0, min(10, s))
}

// temporalGaps reports every year between the first and last observed year
// that has no papers, excluding the three most recent observed years. Years
// outside the corpus year window are ignored. At most limit records are
// returned when limit is positive; all temporal gaps share one severity, so
// the earliest ones are the ones that survive truncation anyway.
func temporalGaps(years FrequencyTable[int], sev, limit int) []GapRecord {
	sorted := slices.DeleteFunc(sortedYears(years), func(y int) bool { return !corpus.ValidYear(y) })
	if len(sorted) < recentWindow {
		return nil
	}
	_, recent := splitRecent(sorted, recentWindow)

	var out []GapRecord
	for y := sorted[0]; y <= sorted[len(sorted)-1]; y++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		if years[y] > 0 || slices.Contains(recent, y) {
			continue
		}
		out = append(out, GapRecord{
			Type:       GapTemporal,
			Area:       strconv.Itoa(y),
			PaperCount: 0,
			Severity:   sev,
			Reason:     reasonNoPublications,
		})
	}
	return out
}
