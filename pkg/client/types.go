package client

import "time"

// Document is a monitored patent document.
type Document struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner,omitempty"`
	Title       string    `json:"title"`
	Inventors   []string  `json:"inventors,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Description string    `json:"description,omitempty"`
	Claims      string    `json:"claims,omitempty"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submission_time"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job tracks one analysis run.  Status is one of "in_progress", "completed"
// or "failed".
type Job struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	KeywordSet  string     `json:"keyword_set"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScoredText is a text fragment with a confidence score.
type ScoredText struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Sentiment is the overall sentiment classification of a document.
type Sentiment struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Features is the full NLP feature set extracted from a document.
type Features struct {
	Entities   map[string][]ScoredText `json:"entities"`
	KeyPhrases []ScoredText            `json:"key_phrases"`
	Sentiment  Sentiment               `json:"sentiment"`
}

// Match is one previously submitted document that cleared the inclusion
// floor.
type Match struct {
	DocumentID       string    `json:"document_id"`
	Title            string    `json:"title"`
	Similarity       float64   `json:"similarity"`
	SubmittedAt      time.Time `json:"submission_time"`
	MatchingKeywords []string  `json:"matching_keywords"`
}

// RiskAssessment summarizes the exposure derived from a match list.
type RiskAssessment struct {
	OverallRisk          string   `json:"overall_risk"`
	RiskFactors          []string `json:"risk_factors"`
	HighSimilarityCount  int      `json:"high_similarity_count"`
	AverageTopSimilarity float64  `json:"average_top_similarity"`
}

// Result is the outcome of one completed analysis.
type Result struct {
	ID             string         `json:"id"`
	JobID          string         `json:"job_id"`
	DocumentID     string         `json:"document_id"`
	Keywords       []string       `json:"keywords"`
	DomainKeywords []string       `json:"domain_keywords,omitempty"`
	Features       *Features      `json:"features,omitempty"`
	Matches        []Match        `json:"matches"`
	Assessment     RiskAssessment `json:"risk_assessment"`
	CreatedAt      time.Time      `json:"created_at"`
}

// KeywordSet is a named collection of domain terms.
type KeywordSet struct {
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
