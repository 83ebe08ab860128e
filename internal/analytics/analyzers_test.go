package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// ---------------------------------------------------------------------------
// AnalyzeTrend
// ---------------------------------------------------------------------------

func TestAnalyzeTrend_Accelerating(t *testing.T) {
	t.Parallel()

	got := AnalyzeTrend(FrequencyTable[int]{2018: 2, 2019: 3, 2020: 5, 2021: 8, 2022: 10}, DefaultConfig())

	// recent avg 23/3, older avg 2.5
	assert.InDelta(t, 206.67, got.GrowthRate, 1e-9)
	assert.Equal(t, TrendAccelerating, got.Trend)
	require.NotNil(t, got.PeakYear)
	assert.Equal(t, 2022, *got.PeakYear)
	assert.Equal(t, 10, got.PeakCount)
}

func TestAnalyzeTrend_Declining(t *testing.T) {
	t.Parallel()

	got := AnalyzeTrend(FrequencyTable[int]{2015: 10, 2016: 10, 2017: 2, 2018: 2, 2019: 2}, DefaultConfig())

	assert.InDelta(t, -80, got.GrowthRate, 1e-9)
	assert.Equal(t, TrendDeclining, got.Trend)
	require.NotNil(t, got.PeakYear)
	assert.Equal(t, 2015, *got.PeakYear, "ties resolve to the earliest year")
}

func TestAnalyzeTrend_Steady(t *testing.T) {
	t.Parallel()

	got := AnalyzeTrend(FrequencyTable[int]{2015: 5, 2016: 5, 2017: 5, 2018: 5}, DefaultConfig())

	assert.InDelta(t, 0, got.GrowthRate, 1e-9)
	assert.Equal(t, TrendSteady, got.Trend)
}

func TestAnalyzeTrend_NoOlderYearsIsMaximalGrowth(t *testing.T) {
	t.Parallel()

	got := AnalyzeTrend(FrequencyTable[int]{2021: 1, 2022: 4}, DefaultConfig())

	assert.InDelta(t, 100, got.GrowthRate, 1e-9)
	assert.Equal(t, TrendAccelerating, got.Trend)
	assert.Equal(t, 2022, *got.PeakYear)
}

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	t.Parallel()

	single := AnalyzeTrend(FrequencyTable[int]{2020: 7}, DefaultConfig())
	assert.Equal(t, TrendInsufficientData, single.Trend)
	assert.Zero(t, single.GrowthRate)
	require.NotNil(t, single.PeakYear)
	assert.Equal(t, 2020, *single.PeakYear)
	assert.Equal(t, 7, single.PeakCount)

	empty := AnalyzeTrend(FrequencyTable[int]{}, DefaultConfig())
	assert.Equal(t, TrendInsufficientData, empty.Trend)
	assert.Nil(t, empty.PeakYear)
	assert.Zero(t, empty.PeakCount)
}

func TestAnalyzeTrend_ConfigurableThresholds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.AcceleratingPct = 10

	years := FrequencyTable[int]{2015: 20, 2016: 20, 2017: 23, 2018: 23, 2019: 23}
	got := AnalyzeTrend(years, cfg)

	assert.InDelta(t, 15, got.GrowthRate, 1e-9)
	assert.Equal(t, TrendAccelerating, got.Trend)
	assert.Equal(t, TrendSteady, AnalyzeTrend(years, DefaultConfig()).Trend)
}

// ---------------------------------------------------------------------------
// BuildNetwork
// ---------------------------------------------------------------------------

func TestBuildNetwork_StrengthAndOrder(t *testing.T) {
	t.Parallel()

	pairs := FrequencyTable[PairKey]{
		NewPairKey("mouse", "rat"):   4,
		NewPairKey("mouse", "yeast"): 1,
		NewPairKey("rat", "yeast"):   4,
	}
	organisms := FrequencyTable[string]{"mouse": 10, "rat": 6, "yeast": 3}

	got := BuildNetwork(pairs, organisms, 10)

	require.Len(t, got, 3)
	assert.Equal(t, CollaborationEdge{Organism1: "mouse", Organism2: "rat", CoOccurrences: 4, Strength: 0.667}, got[0])
	assert.Equal(t, CollaborationEdge{Organism1: "rat", Organism2: "yeast", CoOccurrences: 4, Strength: 1.333}, got[1])
	assert.Equal(t, "yeast", got[2].Organism2)
	assert.InDelta(t, 0.333, got[2].Strength, 1e-9)
}

func TestBuildNetwork_SkipsZeroDenominatorAndTruncates(t *testing.T) {
	t.Parallel()

	pairs := FrequencyTable[PairKey]{
		NewPairKey("a", "b"):     3,
		NewPairKey("a", "ghost"): 9,
		NewPairKey("a", "c"):     2,
	}
	organisms := FrequencyTable[string]{"a": 5, "b": 3, "c": 2}

	got := BuildNetwork(pairs, organisms, 1)

	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Organism2)
	assert.Len(t, BuildNetwork(pairs, organisms, 0), 2)
}

// ---------------------------------------------------------------------------
// DetectEmerging
// ---------------------------------------------------------------------------

func emergingFixture() (*Tables, []corpus.ChunkMetadata) {
	var chunks []corpus.ChunkMetadata
	add := func(n, year int, kw string) {
		for i := range n {
			chunks = append(chunks, chunk(fmt.Sprintf("%s-%d-%d", kw, year, i), year, nil, []string{kw}, nil))
		}
	}
	// "crispr": older 1, recent 5 -> +400%
	add(1, 2017, "crispr")
	add(2, 2019, "crispr")
	add(3, 2020, "crispr")
	// "bone": older 4, recent 5 -> +25%, not emerging
	add(4, 2017, "bone")
	add(5, 2021, "bone")
	// "organoid": recent only, 3 mentions -> 100
	add(3, 2021, "organoid")
	// "plasma": recent only, 2 mentions -> below floor
	add(2, 2020, "plasma")
	add(1, 2018, "filler")
	return Aggregate(chunks), chunks
}

func TestDetectEmerging(t *testing.T) {
	t.Parallel()

	tb, _ := emergingFixture()

	got := DetectEmerging(tb.Topics, tb.Years, tb.TopicYears, DefaultConfig(), 8)

	require.Len(t, got, 2)
	assert.Equal(t, EmergingArea{Topic: "crispr", RecentPapers: 5, GrowthRate: 400, TotalPapers: 6}, got[0])
	assert.Equal(t, EmergingArea{Topic: "organoid", RecentPapers: 3, GrowthRate: 100, TotalPapers: 3}, got[1])
}

func TestDetectEmerging_Limit(t *testing.T) {
	t.Parallel()

	tb, _ := emergingFixture()

	got := DetectEmerging(tb.Topics, tb.Years, tb.TopicYears, DefaultConfig(), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "crispr", got[0].Topic)
}

func TestDetectEmerging_NeedsThreeYears(t *testing.T) {
	t.Parallel()

	var chunks []corpus.ChunkMetadata
	for i := range 50 {
		chunks = append(chunks, chunk(fmt.Sprint(i), 2020+i%2, nil, []string{"hot topic"}, nil))
	}
	tb := Aggregate(chunks)

	got := DetectEmerging(tb.Topics, tb.Years, tb.TopicYears, DefaultConfig(), 8)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ---------------------------------------------------------------------------
// AnalyzeCoverage
// ---------------------------------------------------------------------------

func TestAnalyzeCoverage_OrganismGap(t *testing.T) {
	t.Parallel()

	got := AnalyzeCoverage(
		FrequencyTable[string]{"mouse": 50, "zebrafish": 3, "yeast": 40},
		FrequencyTable[string]{},
		FrequencyTable[int]{},
		DefaultConfig(),
	)

	require.Len(t, got, 1)
	assert.Equal(t, GapOrganism, got[0].Type)
	assert.Equal(t, "zebrafish", got[0].Area)
	assert.Equal(t, 3, got[0].PaperCount)
	assert.Equal(t, 10, got[0].Severity)
}

func TestAnalyzeCoverage_TopicUsesStricterRatio(t *testing.T) {
	t.Parallel()

	// mean 10: 4 < 5 would be an organism gap but not a topic gap (< 3).
	got := AnalyzeCoverage(
		FrequencyTable[string]{},
		FrequencyTable[string]{"a": 4, "b": 2, "c": 24},
		FrequencyTable[int]{},
		DefaultConfig(),
	)

	require.Len(t, got, 1)
	assert.Equal(t, GapTopic, got[0].Type)
	assert.Equal(t, "b", got[0].Area)
	assert.Equal(t, 8, got[0].Severity)
}

func TestAnalyzeCoverage_TemporalGaps(t *testing.T) {
	t.Parallel()

	got := AnalyzeCoverage(
		FrequencyTable[string]{},
		FrequencyTable[string]{},
		FrequencyTable[int]{2010: 1, 2013: 2, 2014: 1, 2015: 3},
		DefaultConfig(),
	)

	require.Len(t, got, 2)
	for i, year := range []string{"2011", "2012"} {
		assert.Equal(t, GapTemporal, got[i].Type)
		assert.Equal(t, year, got[i].Area)
		assert.Equal(t, 7, got[i].Severity)
		assert.Equal(t, "no publications in this year", got[i].Reason)
	}
}

func TestAnalyzeCoverage_TemporalNeedsThreeYears(t *testing.T) {
	t.Parallel()

	got := AnalyzeCoverage(nil, nil, FrequencyTable[int]{2000: 1, 2010: 1}, DefaultConfig())
	assert.Empty(t, got)
}

func TestAnalyzeCoverage_OutlierYearIgnored(t *testing.T) {
	t.Parallel()

	years := FrequencyTable[int]{2019: 1, 2020: 5, 2021: 5, 2022: 5, 20000000: 1}
	got := AnalyzeCoverage(nil, nil, years, DefaultConfig())
	assert.Empty(t, got, "a year far outside the corpus window must not open a gap range")
}

func TestAnalyzeCoverage_TemporalGapsStopAtMaxGaps(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxGaps = 4
	years := FrequencyTable[int]{corpus.MinYear: 1, 2020: 1, 2021: 1, 2022: 1}

	got := temporalGaps(years, cfg.TemporalGapSeverity, cfg.MaxGaps)
	require.Len(t, got, 4)
	assert.Equal(t, "1801", got[0].Area)
	assert.Equal(t, "1804", got[3].Area)

	all := temporalGaps(years, cfg.TemporalGapSeverity, 0)
	assert.Len(t, all, 2019-corpus.MinYear)
}

func TestAnalyzeCoverage_TemporalCapKeepsOrganismGaps(t *testing.T) {
	t.Parallel()

	organisms := FrequencyTable[string]{"mouse": 100, "tardigrade": 1}
	years := FrequencyTable[int]{1900: 1, 2020: 1, 2021: 1, 2022: 1}

	got := AnalyzeCoverage(organisms, nil, years, DefaultConfig())

	require.Len(t, got, 15)
	assert.Equal(t, GapOrganism, got[0].Type)
	assert.Equal(t, "tardigrade", got[0].Area)
	assert.Equal(t, "1901", got[1].Area)
	assert.Equal(t, "1914", got[14].Area)
}

func TestAnalyzeCoverage_SortedAndTruncated(t *testing.T) {
	t.Parallel()

	organisms := FrequencyTable[string]{"big": 1000}
	for i := range 20 {
		organisms[fmt.Sprintf("rare-%02d", i)] = 1
	}
	years := FrequencyTable[int]{1990: 1, 2020: 1, 2021: 1, 2022: 1}

	got := AnalyzeCoverage(organisms, FrequencyTable[string]{}, years, DefaultConfig())

	require.Len(t, got, 15)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Severity, got[i].Severity)
	}
	assert.Equal(t, "rare-00", got[0].Area)
}

func TestAnalyzeCoverage_Empty(t *testing.T) {
	t.Parallel()

	got := AnalyzeCoverage(nil, nil, nil, DefaultConfig())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ---------------------------------------------------------------------------
// AnalyzeComparative
// ---------------------------------------------------------------------------

func TestAnalyzeComparative_Coverage(t *testing.T) {
	t.Parallel()

	chunks := []corpus.ChunkMetadata{
		chunk("p1", 0, []string{"A"}, nil, []string{"radiation"}),
		chunk("p2", 0, []string{"B"}, nil, []string{"microgravity"}),
	}

	got := AnalyzeComparative(chunks, 20)

	assert.Equal(t, 4, got.TotalCombinations)
	assert.Equal(t, 2, got.StudiedCombinations)
	assert.InDelta(t, 50.0, got.CoveragePercentage, 1e-9)
	assert.Equal(t, []ComparativeGapRecord{
		{Organism: "A", Condition: "microgravity", Status: StatusNotStudied},
		{Organism: "B", Condition: "radiation", Status: StatusNotStudied},
	}, got.Gaps)
}

func TestAnalyzeComparative_Truncates(t *testing.T) {
	t.Parallel()

	var orgs, conds []string
	for i := range 6 {
		orgs = append(orgs, fmt.Sprintf("o%d", i))
		conds = append(conds, fmt.Sprintf("c%d", i))
	}
	chunks := []corpus.ChunkMetadata{
		chunk("p1", 0, orgs, nil, nil),
		chunk("p2", 0, nil, nil, conds),
		chunk("p3", 0, []string{"o0"}, nil, []string{"c0"}),
	}

	got := AnalyzeComparative(chunks, 20)

	assert.Equal(t, 36, got.TotalCombinations)
	assert.Equal(t, 1, got.StudiedCombinations)
	require.Len(t, got.Gaps, 20)
	assert.Equal(t, ComparativeGapRecord{Organism: "o0", Condition: "c1", Status: StatusNotStudied}, got.Gaps[0])
	assert.Equal(t, "o3", got.Gaps[19].Organism)
}

func TestAnalyzeComparative_EmptyAxes(t *testing.T) {
	t.Parallel()

	got := AnalyzeComparative([]corpus.ChunkMetadata{chunk("p", 0, []string{"mouse"}, nil, nil)}, 20)

	assert.Zero(t, got.TotalCombinations)
	assert.Zero(t, got.CoveragePercentage)
	assert.NotNil(t, got.Gaps)
	assert.Empty(t, got.Gaps)
}

// ---------------------------------------------------------------------------
// OrganismTrends / TopicEvolution
// ---------------------------------------------------------------------------

func TestOrganismTrends(t *testing.T) {
	t.Parallel()

	chunks := []corpus.ChunkMetadata{
		chunk("1", 2018, []string{"mouse"}, nil, nil),
		chunk("2", 2019, []string{"mouse"}, nil, nil),
		chunk("3", 2020, []string{"mouse"}, nil, nil),
		chunk("4", 2021, []string{"mouse"}, nil, nil),
		chunk("5", 2021, []string{"mouse"}, nil, nil),
		chunk("6", 2021, []string{"rat"}, nil, nil),
	}

	got := OrganismTrends(Aggregate(chunks), DefaultConfig(), 10)

	require.Len(t, got, 2)
	assert.Equal(t, "mouse", got[0].Organism)
	assert.Equal(t, 5, got[0].TotalPapers)
	assert.Equal(t, FrequencyTable[int]{2018: 1, 2019: 1, 2020: 1, 2021: 2}, got[0].TrendData)
	// recent (1+1+2)/3 against older 1
	assert.InDelta(t, 33.33, got[0].Velocity, 1e-9)
	assert.Equal(t, TrendAccelerating, got[0].Status)
	assert.Equal(t, TrendInsufficientData, got[1].Status)
}

func TestTopicEvolution(t *testing.T) {
	t.Parallel()

	chunks := []corpus.ChunkMetadata{
		chunk("1", 2010, nil, []string{"bone"}, nil),
		chunk("2", 2019, nil, []string{"bone"}, nil),
		chunk("3", 2020, nil, []string{"bone"}, nil),
		chunk("4", 2021, nil, []string{"bone", "muscle"}, nil),
		chunk("5", 0, nil, []string{"muscle"}, nil),
	}

	got := TopicEvolution(Aggregate(chunks), 15)

	require.Len(t, got, 2)
	assert.Equal(t, "bone", got[0].Topic)
	assert.Equal(t, 2010, *got[0].FirstSeen)
	assert.Equal(t, 2021, *got[0].LastSeen)
	assert.InDelta(t, 75.0, got[0].RecentMomentum, 1e-9)

	assert.Equal(t, "muscle", got[1].Topic)
	assert.InDelta(t, 100.0, got[1].RecentMomentum, 1e-9)
}
