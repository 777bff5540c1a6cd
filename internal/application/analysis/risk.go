package analysis

import (
	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
)

// Canned risk-factor statements per bucket, included verbatim in the
// persisted assessment for reporting.
var (
	highRiskFactors = []string{
		"Multiple highly similar patents found",
		"High potential for infringement",
	}
	mediumRiskFactors = []string{
		"One or more similar patents found",
		"Moderate potential for infringement",
	}
	lowRiskFactors = []string{
		"No highly similar patents found",
	}
)

// RiskAssessor classifies the overall exposure of a document from its match
// list.
//
// Classification counts the strong matches — those at or above the similarity
// threshold.  More than highCount strong matches is high risk, at least one
// is medium, none is low.  The average-top-similarity figure is the mean
// similarity of the strongest topMatches matches, strong or not, so that
// near-threshold clusters still surface in the assessment.
type RiskAssessor struct {
	threshold  float64
	highCount  int
	topMatches int
}

// NewRiskAssessor constructs a RiskAssessor from the analysis configuration.
func NewRiskAssessor(cfg config.AnalysisConfig) *RiskAssessor {
	return &RiskAssessor{
		threshold:  cfg.SimilarityThreshold,
		highCount:  cfg.HighCountThreshold,
		topMatches: cfg.TopMatches,
	}
}

// Assess builds the risk assessment for a match list.  Matches must be
// sorted by descending similarity, as produced by SimilarityEngine.Compare.
// An empty match list is low risk with a zero average.
func (a *RiskAssessor) Assess(matches []analysis.Match) analysis.RiskAssessment {
	strong := 0
	for _, m := range matches {
		if m.Similarity >= a.threshold {
			strong++
		}
	}

	level := analysis.RiskLow
	factors := lowRiskFactors
	switch {
	case strong > a.highCount:
		level = analysis.RiskHigh
		factors = highRiskFactors
	case strong > 0:
		level = analysis.RiskMedium
		factors = mediumRiskFactors
	}

	var avg float64
	if len(matches) > 0 {
		n := a.topMatches
		if n > len(matches) {
			n = len(matches)
		}
		var sum float64
		for _, m := range matches[:n] {
			sum += m.Similarity
		}
		avg = sum / float64(n)
	}

	return analysis.RiskAssessment{
		OverallRisk:          level,
		RiskFactors:          append([]string(nil), factors...),
		HighSimilarityCount:  strong,
		AverageTopSimilarity: avg,
	}
}
