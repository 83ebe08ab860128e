package analytics

// OrganismTrend is the per-year publication profile of one organism.
type OrganismTrend struct {
	Organism    string              `json:"organism"`
	TotalPapers int                 `json:"total_papers"`
	TrendData   FrequencyTable[int] `json:"trend_data"`
	// Velocity is the organism's growth rate as computed by AnalyzeTrend.
	Velocity float64 `json:"velocity"`
	// Status is the organism's trend label.
	Status string `json:"status"`
}

// TopicTimeline is the per-year mention profile of one topic.
type TopicTimeline struct {
	Topic    string              `json:"topic"`
	Timeline FrequencyTable[int] `json:"timeline"`
	// RecentMomentum is the share of the topic's dated mentions that fall in
	// the last three corpus years, as a percentage.
	RecentMomentum float64 `json:"recent_momentum"`
	FirstSeen      *int    `json:"first_seen"`
	LastSeen       *int    `json:"last_seen"`
}

// OrganismTrends runs AnalyzeTrend over the timeline of each of the limit most
// frequent organisms.
func OrganismTrends(t *Tables, cfg Config, limit int) []OrganismTrend {
	byOrganism := timelines(t.OrganismYears)

	out := []OrganismTrend{}
	for _, r := range topN(t.Organisms, limit) {
		tl := byOrganism[r.Name]
		if tl == nil {
			tl = FrequencyTable[int]{}
		}
		s := AnalyzeTrend(tl, cfg)
		out = append(out, OrganismTrend{
			Organism:    r.Name,
			TotalPapers: r.Count,
			TrendData:   tl,
			Velocity:    s.GrowthRate,
			Status:      s.Trend,
		})
	}
	return out
}

// TopicEvolution reports the timeline, first and last year, and recent
// momentum of each of the limit most frequent topics.
func TopicEvolution(t *Tables, limit int) []TopicTimeline {
	byTopic := timelines(t.TopicYears)
	_, recent := splitRecent(sortedYears(t.Years), recentWindow)

	out := []TopicTimeline{}
	for _, r := range topN(t.Topics, limit) {
		tl := byTopic[r.Name]
		if tl == nil {
			tl = FrequencyTable[int]{}
		}
		e := TopicTimeline{Topic: r.Name, Timeline: tl}
		if years := sortedYears(tl); len(years) > 0 {
			first, last := years[0], years[len(years)-1]
			e.FirstSeen, e.LastSeen = &first, &last
		}
		if dated := tl.Total(); dated > 0 {
			e.RecentMomentum = round(float64(sumYears(tl, recent))/float64(dated)*100, 2)
		}
		out = append(out, e)
	}
	return out
}
