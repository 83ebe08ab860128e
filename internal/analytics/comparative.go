package analytics

import "github.com/54b3r/sbke-go/internal/corpus"

// StatusNotStudied marks an organism/condition combination absent from the
// corpus.
const StatusNotStudied = "not_studied"

// ComparativeGapRecord is an organism/condition combination never studied
// together.
type ComparativeGapRecord struct {
	Organism  string `json:"organism"`
	Condition string `json:"condition"`
	Status    string `json:"status"`
}

// ComparativeGapReport summarises organism x condition completeness.
type ComparativeGapReport struct {
	Gaps                []ComparativeGapRecord `json:"organism_condition_gaps"`
	TotalCombinations   int                    `json:"total_combinations"`
	StudiedCombinations int                    `json:"studied_combinations"`
	CoveragePercentage  float64                `json:"coverage_percentage"`
}

// AnalyzeComparative builds the organism x space-condition matrix and lists
// the unstudied combinations in discovery order (organism-major), truncated
// to limit when limit > 0. Coverage is 0 when either axis is empty.
func AnalyzeComparative(chunks []corpus.ChunkMetadata, limit int) ComparativeGapReport {
	var organisms, conditions []string
	seenOrg := map[string]bool{}
	seenCond := map[string]bool{}
	matrix := map[string]map[string]int{}

	for _, c := range chunks {
		orgs := corpus.Dedupe(c.Organisms)
		conds := corpus.Dedupe(c.SpaceConditions)
		for _, o := range orgs {
			if !seenOrg[o] {
				seenOrg[o] = true
				organisms = append(organisms, o)
			}
		}
		for _, cond := range conds {
			if !seenCond[cond] {
				seenCond[cond] = true
				conditions = append(conditions, cond)
			}
		}
		for _, o := range orgs {
			for _, cond := range conds {
				row, ok := matrix[o]
				if !ok {
					row = map[string]int{}
					matrix[o] = row
				}
				row[cond]++
			}
		}
	}

	report := ComparativeGapReport{
		Gaps:              []ComparativeGapRecord{},
		TotalCombinations: len(organisms) * len(conditions),
	}
	for _, row := range matrix {
		report.StudiedCombinations += len(row)
	}
	if report.TotalCombinations > 0 {
		report.CoveragePercentage = round(float64(report.StudiedCombinations)/float64(report.TotalCombinations)*100, 2)
	}

	for _, o := range organisms {
		for _, cond := range conditions {
			if limit > 0 && len(report.Gaps) >= limit {
				return report
			}
			if matrix[o][cond] > 0 {
				continue
			}
			report.Gaps = append(report.Gaps, ComparativeGapRecord{
				Organism:  o,
				Condition: cond,
				Status:    StatusNotStudied,
			})
		}
	}
	return report
}
