package analytics

import "math"

// TrendSummary describes the publication trend of a year-keyed table.
type TrendSummary struct {
	// GrowthRate is the percentage change of the recent yearly average over
	// the older yearly average, rounded to 2 decimals.
	GrowthRate float64 `json:"growth_rate"`

	// Trend is one of the Trend* labels.
	Trend string `json:"trend"`

	// PeakYear is the year with the highest count, earliest on ties. Nil
	// when the table is empty.
	PeakYear *int `json:"peak_year"`

	// PeakCount is the count at PeakYear.
	PeakCount int `json:"peak_papers"`
}

// AnalyzeTrend computes growth rate, trend label and peak year. Fewer than two
// distinct years yield the insufficient_data sentinel.
func AnalyzeTrend(years FrequencyTable[int], cfg Config) TrendSummary {
	sorted := sortedYears(years)

	var s TrendSummary
	for _, y := range sorted {
		if years[y] > s.PeakCount {
			s.PeakYear = &y
			s.PeakCount = years[y]
		}
	}

	if len(sorted) < 2 {
		s.Trend = TrendInsufficientData
		return s
	}

	older, recent := splitRecent(sorted, recentWindow)
	avgRecent := float64(sumYears(years, recent)) / float64(len(recent))
	var avgOlder float64
	if len(older) > 0 {
		avgOlder = float64(sumYears(years, older)) / float64(len(older))
	}

	g := growth(avgRecent, avgOlder)
	s.GrowthRate = round(g, 2)
	s.Trend = classify(g, cfg)
	return s
}

// growth returns the percentage change from older to recent. A zero baseline
// is treated as maximal growth (100).
func growth(recent, older float64) float64 {
	if older <= 0 {
		return 100
	}
	return (recent - older) / older * 100
}

func classify(rate float64, cfg Config) string {
	switch {
	case rate > cfg.AcceleratingPct:
		return TrendAccelerating
	case rate < cfg.DecliningPct:
		return TrendDeclining
	default:
		return TrendSteady
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
