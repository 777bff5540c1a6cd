// Package document implements the monitored-document bounded context for the
// PatentSentinel platform.  A Document is a patent-style text artifact
// (title, abstract, claims, description plus filing metadata) submitted for
// infringement-risk analysis against the corpus of previously submitted
// documents.  All business rules concerning document state live here;
// persistence is handled by the repository layer.
package document

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Status is the lifecycle state of a monitored document.
type Status string

const (
	// StatusSubmitted marks a document that has been stored but never analyzed.
	StatusSubmitted Status = "submitted"

	// StatusAnalyzing marks a document with an analysis job currently in flight.
	StatusAnalyzing Status = "analyzing"

	// StatusAnalyzed marks a document whose most recent analysis succeeded.
	StatusAnalyzed Status = "analyzed"

	// StatusAnalysisFailed marks a document whose most recent analysis
	// exhausted all retries or failed permanently.
	StatusAnalysisFailed Status = "analysis_failed"
)

// allowedTransitions defines the valid next states reachable from each status.
// Transitions not listed are illegal and will be rejected by TransitionTo.
//
//	submitted ──► analyzing ──► analyzed ──► analyzing …
//	                  │
//	                  └──► analysis_failed ──► analyzing …
var allowedTransitions = map[Status][]Status{
	StatusSubmitted:      {StatusAnalyzing},
	StatusAnalyzing:      {StatusAnalyzed, StatusAnalysisFailed},
	StatusAnalyzed:       {StatusAnalyzing},
	StatusAnalysisFailed: {StatusAnalyzing},
}

// IsValid reports whether s is one of the defined document statuses.
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// maxTitleLen bounds the title column; longer titles are rejected rather than
// truncated so the caller learns about the problem.
const maxTitleLen = 512

// Document is the aggregate root of the monitored-document context.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Inventors   []string  `json:"inventors,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Description string    `json:"description,omitempty"`
	Claims      string    `json:"claims,omitempty"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submission_time"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fields bundles the caller-supplied content of a new document.
type Fields struct {
	Owner       string
	Title       string
	Inventors   []string
	Domain      string
	Abstract    string
	Description string
	Claims      string
}

// New constructs a Document in the submitted state after validating its
// content.  The title is required, and at least one of abstract, claims or
// description must be non-empty once whitespace is trimmed; analysis of a
// document with no analyzable text is meaningless and is rejected up front.
func New(f Fields) (*Document, error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return nil, errors.Validation("document title must not be empty")
	}
	if len(f.Title) > maxTitleLen {
		return nil, errors.Validation("document title exceeds maximum length")
	}
	if strings.TrimSpace(f.Abstract) == "" &&
		strings.TrimSpace(f.Claims) == "" &&
		strings.TrimSpace(f.Description) == "" {
		return nil, errors.Validation("document must carry an abstract, claims or description")
	}

	inventors := make([]string, 0, len(f.Inventors))
	for _, inv := range f.Inventors {
		if inv = strings.TrimSpace(inv); inv != "" {
			inventors = append(inventors, inv)
		}
	}

	now := time.Now().UTC()
	return &Document{
		ID:          uuid.New(),
		Owner:       strings.TrimSpace(f.Owner),
		Title:       f.Title,
		Inventors:   inventors,
		Domain:      strings.TrimSpace(f.Domain),
		Abstract:    f.Abstract,
		Description: f.Description,
		Claims:      f.Claims,
		Status:      StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}, nil
}

// AssembleText builds the canonical analyzable text from the structured
// fields: title, abstract, claims and description in fixed order, non-empty
// fields joined by a single space.  Pure; never fails.
func AssembleText(title, abstract, claims, description string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{title, abstract, claims, description} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// AnalyzableText returns the document's canonical analyzable text.  Both the
// feature-extraction input and the corpus side of similarity matching are
// computed over this text, so the two stages always see the same projection.
func (d *Document) AnalyzableText() string {
	return AssembleText(d.Title, d.Abstract, d.Claims, d.Description)
}

// TransitionTo moves the document to next, enforcing the state machine.
func (d *Document) TransitionTo(next Status) error {
	if !next.IsValid() {
		return errors.Newf(errors.ErrCodeDocumentStatusInvalid,
			"unknown document status %q", next)
	}
	if !d.Status.CanTransitionTo(next) {
		return errors.Newf(errors.ErrCodeDocumentStatusInvalid,
			"illegal document status transition %s → %s", d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Analyzable reports whether a new analysis may be started for the document.
// A document already in the analyzing state must first complete or fail.
func (d *Document) Analyzable() bool {
	return d.Status.CanTransitionTo(StatusAnalyzing)
}
