package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// defaultCorpusCap bounds a full corpus read when the caller imposes no limit.
const defaultCorpusCap = 10000

// CorpusRepository is the relational analysis.CorpusReader.  The corpus is
// the documents table itself — every previously submitted document except the
// one under analysis — projected down to the fields the matching stage needs.
// Deployments with a large corpus switch to the OpenSearch reader via
// configuration.
type CorpusRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewCorpusRepository constructs a ready-to-use CorpusRepository.
func NewCorpusRepository(pool *pgxpool.Pool, log logging.Logger) *CorpusRepository {
	return &CorpusRepository{pool: pool, log: log}
}

// Documents returns the corpus projection used by the matching stage,
// excluding the given document.  Text is assembled from the stored sections
// the same way the aggregate assembles its analyzable text.
func (r *CorpusRepository) Documents(ctx context.Context, excluding uuid.UUID, limit int) ([]*analysis.CorpusDocument, error) {
	if limit <= 0 {
		limit = defaultCorpusCap
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, abstract, claims, description, submitted_at
		FROM documents
		WHERE id <> $1
		ORDER BY submitted_at ASC LIMIT $2`, excluding, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to read document corpus")
	}
	defer rows.Close()

	var out []*analysis.CorpusDocument
	for rows.Next() {
		var (
			d                             analysis.CorpusDocument
			abstract, claims, description string
		)
		if err := rows.Scan(&d.ID, &d.Title, &abstract, &claims, &description, &d.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to scan corpus document row")
		}
		d.Text = document.AssembleText(d.Title, abstract, claims, description)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "corpus row iteration failed")
	}
	return out, nil
}
