package analysis

import (
	"sort"
	"strings"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
)

// SimilarityEngine scores a candidate document's keywords against the
// analyzable text of previously submitted documents.
//
// Similarity is keyword containment: the fraction of the candidate's keywords
// that occur, case-insensitively, as substrings of the other document's text.
// Adding a matching keyword can therefore never lower a document's score
// relative to another document with the same text.
type SimilarityEngine struct {
	threshold      float64
	inclusionFloor float64
}

// NewSimilarityEngine constructs a SimilarityEngine from the analysis
// configuration.  The inclusion floor — the minimum similarity a document
// needs to be reported at all — is a fixed ratio of the match threshold, so
// borderline overlap still surfaces in results even when it does not count
// toward the risk buckets.
func NewSimilarityEngine(cfg config.AnalysisConfig) *SimilarityEngine {
	return &SimilarityEngine{
		threshold:      cfg.SimilarityThreshold,
		inclusionFloor: cfg.SimilarityThreshold * cfg.InclusionFloorRatio,
	}
}

// Threshold returns the similarity value at which a match is considered
// strong for risk purposes.
func (e *SimilarityEngine) Threshold() float64 { return e.threshold }

// Similarity computes the containment score of keywords against text,
// together with the matched keywords in keyword-list order.  A keyword
// matches when it occurs as a case-insensitive substring of text.  An empty
// keyword list scores 0.
func (e *SimilarityEngine) Similarity(keywords []string, text string) (float64, []string) {
	if len(keywords) == 0 {
		return 0, nil
	}
	haystack := strings.ToLower(text)

	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	return float64(len(matched)) / float64(len(keywords)), matched
}

// Compare scores every corpus document and returns those at or above the
// inclusion floor, sorted by descending similarity.  Ties break on submission
// time, more recent first, so the freshest overlapping filing leads the
// report.
func (e *SimilarityEngine) Compare(keywords []string, corpus []*analysis.CorpusDocument) []analysis.Match {
	matches := make([]analysis.Match, 0)
	for _, doc := range corpus {
		score, matched := e.Similarity(keywords, doc.Text)
		if score < e.inclusionFloor || len(matched) == 0 {
			continue
		}
		matches = append(matches, analysis.Match{
			DocumentID:       doc.ID,
			Title:            doc.Title,
			Similarity:       score,
			SubmittedAt:      doc.SubmittedAt,
			MatchingKeywords: matched,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].SubmittedAt.After(matches[j].SubmittedAt)
	})
	return matches
}
