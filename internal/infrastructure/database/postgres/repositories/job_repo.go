package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// activeJobConstraint is the partial unique index enforcing at most one
// pending or running job per document (see migration 0001).
const activeJobConstraint = "analysis_jobs_one_active_per_document"

// JobRepository is the PostgreSQL implementation of analysis.JobRepository.
type JobRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewJobRepository constructs a ready-to-use JobRepository.
func NewJobRepository(pool *pgxpool.Pool, log logging.Logger) *JobRepository {
	return &JobRepository{pool: pool, log: log}
}

const jobColumns = `id, document_id, keyword_set, status, attempts, last_error,
	enqueued_at, started_at, completed_at, updated_at`

func scanJob(row interface{ Scan(dest ...any) error }) (*analysis.Job, error) {
	var j analysis.Job
	err := row.Scan(&j.ID, &j.DocumentID, &j.KeywordSet, &j.Status, &j.Attempts,
		&j.LastError, &j.EnqueuedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create persists a new pending job.  The partial unique index on active jobs
// is the database-level backstop for the one-in-flight rule; a violation is
// surfaced as ErrCodeJobInFlight.
func (r *JobRepository) Create(ctx context.Context, j *analysis.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO analysis_jobs (id, document_id, keyword_set, status, attempts,
			last_error, enqueued_at, started_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		j.ID, j.DocumentID, j.KeywordSet, j.Status, j.Attempts,
		j.LastError, j.EnqueuedAt, j.StartedAt, j.CompletedAt, j.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, activeJobConstraint) {
			return errors.Newf(errors.ErrCodeJobInFlight,
				"document %s already has an active analysis job", j.DocumentID)
		}
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to insert analysis job")
	}
	return nil
}

// GetByID fetches one job by primary key.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*analysis.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM analysis_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeJobNotFound, "analysis job %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to query analysis job")
	}
	return j, nil
}

// GetActiveByDocument returns the pending or running job for the document.
func (r *JobRepository) GetActiveByDocument(ctx context.Context, documentID uuid.UUID) (*analysis.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM analysis_jobs
		WHERE document_id = $1 AND status IN ($2, $3)
		ORDER BY enqueued_at DESC LIMIT 1`,
		documentID, analysis.JobPending, analysis.JobRunning)
	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeJobNotFound,
				"no active analysis job for document %s", documentID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to query active analysis job")
	}
	return j, nil
}

// Update persists job state mutations.
func (r *JobRepository) Update(ctx context.Context, j *analysis.Job) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, attempts = $3, last_error = $4,
			started_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $1`,
		j.ID, j.Status, j.Attempts, j.LastError, j.StartedAt, j.CompletedAt, j.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to update analysis job")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeJobNotFound, "analysis job %s not found", j.ID)
	}
	return nil
}

// ListStaleRunning returns running jobs untouched since cutoff, oldest first.
func (r *JobRepository) ListStaleRunning(ctx context.Context, cutoff time.Time, limit int) ([]*analysis.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM analysis_jobs
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC LIMIT $3`,
		analysis.JobRunning, cutoff, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list stale running jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListPending returns the oldest pending jobs.
func (r *JobRepository) ListPending(ctx context.Context, limit int) ([]*analysis.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM analysis_jobs
		WHERE status = $1
		ORDER BY enqueued_at ASC LIMIT $2`,
		analysis.JobPending, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list pending jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*analysis.Job, error) {
	var out []*analysis.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to scan analysis job row")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "analysis job row iteration failed")
	}
	return out, nil
}
