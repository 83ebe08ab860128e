package analytics

import (
	"cmp"
	"slices"
)

// EmergingArea is a topic whose recent volume grew sharply against its
// historical baseline.
type EmergingArea struct {
	Topic        string  `json:"topic"`
	RecentPapers int     `json:"recent_papers"`
	GrowthRate   float64 `json:"growth_rate"`
	TotalPapers  int     `json:"total_papers"`
}

// DetectEmerging flags topics whose mentions over the last three corpus years
// reach cfg.MinRecentMentions and grew by more than cfg.EmergingGrowthPct
// against all earlier years. Fewer than three distinct years yield an empty
// list. Results are ordered by growth descending, then topic, and truncated to
// limit when limit > 0.
func DetectEmerging(topics FrequencyTable[string], years FrequencyTable[int], topicYears FrequencyTable[EntityYear], cfg Config, limit int) []EmergingArea {
	sorted := sortedYears(years)
	if len(sorted) < recentWindow {
		return []EmergingArea{}
	}
	older, recent := splitRecent(sorted, recentWindow)

	sum := func(topic string, ys []int) int {
		n := 0
		for _, y := range ys {
			n += topicYears[EntityYear{Entity: topic, Year: y}]
		}
		return n
	}

	areas := []EmergingArea{}
	for topic, total := range topics {
		recentCount := sum(topic, recent)
		if recentCount < cfg.MinRecentMentions {
			continue
		}
		g := growth(float64(recentCount), float64(sum(topic, older)))
		if g <= cfg.EmergingGrowthPct {
			continue
		}
		areas = append(areas, EmergingArea{
			Topic:        topic,
			RecentPapers: recentCount,
			GrowthRate:   round(g, 2),
			TotalPapers:  total,
		})
	}

	slices.SortFunc(areas, func(a, b EmergingArea) int {
		if c := cmp.Compare(b.GrowthRate, a.GrowthRate); c != 0 {
			return c
		}
		return cmp.Compare(a.Topic, b.Topic)
	})

	if limit > 0 && len(areas) > limit {
		areas = areas[:limit]
	}
	return areas
}
