package repositories

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// DocumentRepository is the PostgreSQL implementation of document.Repository.
// Inventors are stored as JSONB; the text sections are plain columns so the
// corpus reader can assemble analyzable text server-side if it ever needs to.
type DocumentRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewDocumentRepository constructs a ready-to-use DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool, log logging.Logger) *DocumentRepository {
	return &DocumentRepository{pool: pool, log: log}
}

const documentColumns = `id, owner, title, inventors, domain, abstract, description, claims, status, submitted_at, updated_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (*document.Document, error) {
	var (
		d             document.Document
		inventorsJSON []byte
	)
	err := row.Scan(&d.ID, &d.Owner, &d.Title, &inventorsJSON, &d.Domain,
		&d.Abstract, &d.Description, &d.Claims, &d.Status, &d.SubmittedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(inventorsJSON) > 0 {
		if err := json.Unmarshal(inventorsJSON, &d.Inventors); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// Create persists a new document.
func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	inventorsJSON, err := json.Marshal(d.Inventors)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode document inventors")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO documents (id, owner, title, inventors, domain, abstract,
			description, claims, status, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Owner, d.Title, inventorsJSON, d.Domain, d.Abstract,
		d.Description, d.Claims, d.Status, d.SubmittedAt, d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to insert document")
	}
	return nil
}

// GetByID fetches one document by primary key.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to query document")
	}
	return d, nil
}

// Update persists document mutations, bumping updated_at from the aggregate.
func (r *DocumentRepository) Update(ctx context.Context, d *document.Document) error {
	inventorsJSON, err := json.Marshal(d.Inventors)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode document inventors")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET owner = $2, title = $3, inventors = $4, domain = $5, abstract = $6,
			description = $7, claims = $8, status = $9, updated_at = $10
		WHERE id = $1`,
		d.ID, d.Owner, d.Title, inventorsJSON, d.Domain, d.Abstract,
		d.Description, d.Claims, d.Status, d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to update document")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeDocumentNotFound, "document %s not found", d.ID)
	}
	return nil
}

// List returns documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY submitted_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list documents")
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to scan document row")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "document row iteration failed")
	}
	return out, nil
}

// ClaimForAnalysis moves the document into the analyzing state with a single
// conditional UPDATE, so concurrent submitters race safely: exactly one wins
// and the rest receive ErrCodeDocumentStatusInvalid.
func (r *DocumentRepository) ClaimForAnalysis(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($4, $5, $6)`,
		id, document.StatusAnalyzing, time.Now().UTC(),
		document.StatusSubmitted, document.StatusAnalyzed, document.StatusAnalysisFailed)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to claim document for analysis")
	}
	if tag.RowsAffected() == 0 {
		// Either the document does not exist or it is already analyzing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return errors.Newf(errors.ErrCodeDocumentStatusInvalid,
			"document %s is already being analyzed", id)
	}
	return nil
}

// ReleaseAnalysis undoes a claim that never produced a job, moving the
// document from analyzing back to its prior status.  A document no longer in
// the analyzing state is left untouched: some other writer already advanced
// it.
func (r *DocumentRepository) ReleaseAnalysis(ctx context.Context, id uuid.UUID, prior document.Status) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, prior, time.Now().UTC(), document.StatusAnalyzing)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to release analysis claim")
	}
	return nil
}

// SetStatus records a terminal analysis outcome for the document.
func (r *DocumentRepository) SetStatus(ctx context.Context, id uuid.UUID, status document.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to set document status")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return nil
}
