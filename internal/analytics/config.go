package analytics

import (
	"time"

	"github.com/54b3r/sbke-go/internal/config"
)

// recentWindow is the number of most recent distinct years treated as
// "recent" by the trend, emerging and evolution analyzers.
const recentWindow = 3

// Trend labels reported by AnalyzeTrend.
const (
	TrendInsufficientData = "insufficient_data"
	TrendAccelerating     = "accelerating"
	TrendDeclining        = "declining"
	TrendSteady           = "steady"
)

// Config holds the thresholds and limits used by the analyzers and the
// snapshot fetch. Use DefaultConfig or ConfigFromEnv to build one.
type Config struct {
	// AcceleratingPct is the growth rate above which a trend is accelerating.
	AcceleratingPct float64

	// DecliningPct is the growth rate below which a trend is declining.
	DecliningPct float64

	// EmergingGrowthPct is the growth rate a topic must exceed to be emerging.
	EmergingGrowthPct float64

	// MinRecentMentions is the noise floor for emerging topics.
	MinRecentMentions int

	// OrganismGapRatio is the fraction of the mean organism count below
	// which an organism is a coverage gap.
	OrganismGapRatio float64

	// TopicGapRatio is the fraction of the mean topic count below which a
	// topic is a coverage gap.
	TopicGapRatio float64

	// TemporalGapSeverity is the fixed severity of a missing-year gap.
	TemporalGapSeverity int

	// MaxGaps caps the coverage gap list.
	MaxGaps int

	// MaxComparativeGaps caps the unstudied organism/condition list.
	MaxComparativeGaps int

	// NetworkLimit caps the collaboration network edge list.
	NetworkLimit int

	// EmergingLimit caps the emerging-area list.
	EmergingLimit int

	// TopOrganisms is the number of organisms listed in trend reports.
	TopOrganisms int

	// TopTopics is the number of topics listed in trend reports.
	TopTopics int

	// SnapshotMax bounds the number of records fetched per snapshot.
	SnapshotMax int

	// SnapshotTimeout bounds the snapshot fetch.
	SnapshotTimeout time.Duration
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		AcceleratingPct:     20,
		DecliningPct:        -20,
		EmergingGrowthPct:   50,
		MinRecentMentions:   3,
		OrganismGapRatio:    0.5,
		TopicGapRatio:       0.3,
		TemporalGapSeverity: 7,
		MaxGaps:             15,
		MaxComparativeGaps:  20,
		NetworkLimit:        15,
		EmergingLimit:       8,
		TopOrganisms:        10,
		TopTopics:           15,
		SnapshotMax:         500,
		SnapshotTimeout:     30 * time.Second,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by environment variables:
//
//	SBKE_TREND_ACCELERATING_PCT  (default: 20)
//	SBKE_TREND_DECLINING_PCT     (default: -20)
//	SBKE_EMERGING_GROWTH_PCT     (default: 50)
//	SBKE_ORGANISM_GAP_RATIO      (default: 0.5)
//	SBKE_TOPIC_GAP_RATIO         (default: 0.3)
//	SBKE_SNAPSHOT_MAX            (default: 500)
//	SBKE_SNAPSHOT_TIMEOUT        Go duration (default: 30s)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.AcceleratingPct = config.Float("SBKE_TREND_ACCELERATING_PCT", cfg.AcceleratingPct)
	cfg.DecliningPct = config.Float("SBKE_TREND_DECLINING_PCT", cfg.DecliningPct)
	cfg.EmergingGrowthPct = config.Float("SBKE_EMERGING_GROWTH_PCT", cfg.EmergingGrowthPct)
	cfg.OrganismGapRatio = config.Float("SBKE_ORGANISM_GAP_RATIO", cfg.OrganismGapRatio)
	cfg.TopicGapRatio = config.Float("SBKE_TOPIC_GAP_RATIO", cfg.TopicGapRatio)
	if n := config.Int("SBKE_SNAPSHOT_MAX", 0); n > 0 {
		cfg.SnapshotMax = n
	}
	cfg.SnapshotTimeout = config.Duration("SBKE_SNAPSHOT_TIMEOUT", cfg.SnapshotTimeout)
	return cfg
}
