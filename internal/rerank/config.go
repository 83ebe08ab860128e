package rerank

import (
	"strings"

	"github.com/54b3r/sbke-go/internal/config"
)

// Config holds the scoring policy applied by Rerank. None of these values are
// baked into the scoring logic; deployments tune them through the environment
// or the YAML config file.
type Config struct {
	// MinScore is the minimum adjusted score a result must reach.
	MinScore float64
	// SectionBoost multiplies the score of chunks from a boosted section.
	SectionBoost float64
	// RecencyBoost multiplies the score of chunks published at or after
	// RecencyCutoffYear.
	RecencyBoost float64
	// RecencyCutoffYear is the first year that receives the recency boost.
	RecencyCutoffYear int
	// BoostSections lists the sections that receive SectionBoost.
	BoostSections []string
}

// DefaultConfig returns the canonical scoring policy.
func DefaultConfig() Config {
	return Config{
		MinScore:          0.35,
		SectionBoost:      1.15,
		RecencyBoost:      1.05,
		RecencyCutoffYear: 2020,
		BoostSections:     []string{"abstract", "results", "conclusion"},
	}
}

// ConfigFromEnv returns DefaultConfig overridden by environment variables:
//
//	SBKE_MIN_SCORE            minimum adjusted score (default: 0.35)
//	SBKE_SECTION_BOOST        section boost factor (default: 1.15)
//	SBKE_RECENCY_BOOST        recency boost factor (default: 1.05)
//	SBKE_RECENCY_CUTOFF_YEAR  first boosted year (default: 2020)
//	SBKE_BOOST_SECTIONS       comma-separated sections (default: abstract,results,conclusion)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MinScore = config.Float("SBKE_MIN_SCORE", cfg.MinScore)
	cfg.SectionBoost = config.Float("SBKE_SECTION_BOOST", cfg.SectionBoost)
	cfg.RecencyBoost = config.Float("SBKE_RECENCY_BOOST", cfg.RecencyBoost)
	cfg.RecencyCutoffYear = config.Int("SBKE_RECENCY_CUTOFF_YEAR", cfg.RecencyCutoffYear)
	if v := config.String("SBKE_BOOST_SECTIONS", ""); v != "" {
		var sections []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				sections = append(sections, s)
			}
		}
		cfg.BoostSections = sections
	}
	return cfg
}
