package analysis

import (
	"time"

	"github.com/google/uuid"
)

// ─────────────────────────────────────────────────────────────────────────────
// Feature extraction value objects
// ─────────────────────────────────────────────────────────────────────────────

// EntityTypeTechnical is the entity category retained for keyword derivation.
// Other categories (persons, organisations, locations) carry no signal for
// patent matching and are excluded from the candidate keyword list, though
// they stay in the persisted feature set.
const EntityTypeTechnical = "TECHNICAL"

// ScoredText is a text fragment with the extraction service's confidence.
type ScoredText struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Sentiment is the document-level sentiment classification: the winning label
// plus the per-class score distribution.
type Sentiment struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Features is the full output of the feature-extraction service for one
// document: entities grouped by type, key phrases sorted by descending
// confidence, and sentiment.  It is persisted as part of the analysis result.
type Features struct {
	Entities   map[string][]ScoredText `json:"entities"`
	KeyPhrases []ScoredText            `json:"key_phrases"`
	Sentiment  Sentiment               `json:"sentiment"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Keyword sets
// ─────────────────────────────────────────────────────────────────────────────

// KeywordSet is a named collection of domain terms.  Domain keywords are
// reported alongside the analysis result for context; they do not join the
// candidate keyword list used for matching.
type KeywordSet struct {
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Matching and risk value objects
// ─────────────────────────────────────────────────────────────────────────────

// RiskLevel classifies the overall infringement exposure of a document.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// rank orders risk levels for threshold comparisons.
var riskRank = map[RiskLevel]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
}

// AtLeast reports whether r is at or above the severity of min.  Unknown
// levels never satisfy any threshold.
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	rank, ok := riskRank[r]
	if !ok {
		return false
	}
	return rank >= riskRank[min]
}

// IsValid reports whether r is one of the defined risk levels.
func (r RiskLevel) IsValid() bool {
	_, ok := riskRank[r]
	return ok
}

// CorpusDocument is the corpus-side projection of a previously submitted
// document used by the matching stage: identity, submission time and the
// pre-assembled analyzable text the candidate's keywords are searched in.
type CorpusDocument struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	SubmittedAt time.Time `json:"submission_time"`
	Text        string    `json:"text"`
}

// Match records the comparison between the analyzed document and one corpus
// document that cleared the inclusion floor.
type Match struct {
	DocumentID       uuid.UUID `json:"document_id"`
	Title            string    `json:"title"`
	Similarity       float64   `json:"similarity"`
	SubmittedAt      time.Time `json:"submission_time"`
	MatchingKeywords []string  `json:"matching_keywords"`
}

// RiskAssessment is the deterministic classification derived from a match
// list.
type RiskAssessment struct {
	OverallRisk RiskLevel `json:"overall_risk"`

	// RiskFactors explains the classification; the strings are fixed per
	// risk bucket.
	RiskFactors []string `json:"risk_factors"`

	// HighSimilarityCount is the number of matches at or above the risk
	// threshold.
	HighSimilarityCount int `json:"high_similarity_count"`

	// AverageTopSimilarity is the mean similarity of the strongest matches;
	// 0 when no match cleared the inclusion floor.
	AverageTopSimilarity float64 `json:"average_top_similarity"`
}

// Result is the persisted outcome of one successful analysis run.
type Result struct {
	ID         uuid.UUID `json:"id"`
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`

	// Keywords is the candidate keyword list the matching stage used,
	// derived from the document's own features.
	Keywords []string `json:"keywords"`

	// DomainKeywords is the resolved keyword set, reported for context only.
	DomainKeywords []string `json:"domain_keywords,omitempty"`

	// Features is the raw extraction output for the document.
	Features *Features `json:"features,omitempty"`

	// Matches is sorted by similarity, highest first, more recent submission
	// first on ties.
	Matches []Match `json:"matches"`

	Assessment RiskAssessment `json:"risk_assessment"`

	CreatedAt time.Time `json:"created_at"`
}
