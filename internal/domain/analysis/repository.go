package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRepository defines the persistence contract for analysis jobs.
// Implementations translate driver errors into pkg/errors codes:
// ErrCodeJobNotFound for missing rows, ErrCodeJobInFlight for uniqueness
// violations on active jobs, ErrCodeStorage for everything else.
type JobRepository interface {
	// Create persists a new pending job.  At most one active (pending or
	// running) job may exist per document; a second insert must fail with
	// ErrCodeJobInFlight.
	Create(ctx context.Context, j *Job) error

	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// GetActiveByDocument returns the pending or running job for the
	// document, or ErrCodeJobNotFound when none exists.
	GetActiveByDocument(ctx context.Context, documentID uuid.UUID) (*Job, error)

	// Update persists job state mutations made through the aggregate's
	// transition methods.
	Update(ctx context.Context, j *Job) error

	// ListStaleRunning returns running jobs whose last update is older than
	// cutoff.  The recovery sweep requeues these.
	ListStaleRunning(ctx context.Context, cutoff time.Time, limit int) ([]*Job, error)

	// ListPending returns the oldest pending jobs, used by the worker to
	// resume work after a restart.
	ListPending(ctx context.Context, limit int) ([]*Job, error)
}

// ResultRepository defines the persistence contract for analysis results.
type ResultRepository interface {
	Save(ctx context.Context, r *Result) error

	// GetLatestByDocument returns the most recent result for the document,
	// or ErrCodeResultsUnavailable when the document has never completed an
	// analysis.
	GetLatestByDocument(ctx context.Context, documentID uuid.UUID) (*Result, error)

	ListByDocument(ctx context.Context, documentID uuid.UUID, limit int) ([]*Result, error)
}

// KeywordSetRepository defines the persistence contract for domain keyword
// sets.
type KeywordSetRepository interface {
	Put(ctx context.Context, ks *KeywordSet) error
	GetByName(ctx context.Context, name string) (*KeywordSet, error)
	List(ctx context.Context) ([]*KeywordSet, error)
	Delete(ctx context.Context, name string) error
}

// CorpusReader streams the corpus the matching stage compares against: every
// previously submitted document except the candidate itself.  Backed by
// PostgreSQL by default; an OpenSearch implementation can be substituted for
// large corpora.  Snapshot-at-start semantics are sufficient — documents
// added mid-read may or may not be visible.
type CorpusReader interface {
	// Documents returns the corpus projection, excluding the document with
	// the given ID.  Implementations may cap the result set; limit ≤ 0 means
	// no caller-imposed cap.
	Documents(ctx context.Context, excluding uuid.UUID, limit int) ([]*CorpusDocument, error)
}
