package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// KeywordSetRepository is the PostgreSQL implementation of
// analysis.KeywordSetRepository.  Keyword sets are small and change rarely;
// Put is an upsert keyed on the set name.
type KeywordSetRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewKeywordSetRepository constructs a ready-to-use KeywordSetRepository.
func NewKeywordSetRepository(pool *pgxpool.Pool, log logging.Logger) *KeywordSetRepository {
	return &KeywordSetRepository{pool: pool, log: log}
}

// Put inserts or replaces the keyword set.
func (r *KeywordSetRepository) Put(ctx context.Context, ks *analysis.KeywordSet) error {
	if ks.Name == "" {
		return errors.Validation("keyword set name must not be empty")
	}
	keywordsJSON, err := json.Marshal(ks.Keywords)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode keyword set")
	}
	now := time.Now().UTC()
	if ks.CreatedAt.IsZero() {
		ks.CreatedAt = now
	}
	ks.UpdatedAt = now

	_, err = r.pool.Exec(ctx, `
		INSERT INTO keyword_sets (name, domain, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET domain = EXCLUDED.domain, keywords = EXCLUDED.keywords,
			updated_at = EXCLUDED.updated_at`,
		ks.Name, ks.Domain, keywordsJSON, ks.CreatedAt, ks.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to upsert keyword set")
	}
	return nil
}

func scanKeywordSet(row interface{ Scan(dest ...any) error }) (*analysis.KeywordSet, error) {
	var (
		ks           analysis.KeywordSet
		keywordsJSON []byte
	)
	err := row.Scan(&ks.Name, &ks.Domain, &keywordsJSON, &ks.CreatedAt, &ks.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(keywordsJSON, &ks.Keywords); err != nil {
		return nil, err
	}
	return &ks, nil
}

// GetByName fetches one keyword set.
func (r *KeywordSetRepository) GetByName(ctx context.Context, name string) (*analysis.KeywordSet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT name, domain, keywords, created_at, updated_at
		FROM keyword_sets WHERE name = $1`, name)
	ks, err := scanKeywordSet(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeKeywordSetNotFound,
				"keyword set %q not found", name)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to query keyword set")
	}
	return ks, nil
}

// List returns all keyword sets ordered by name.
func (r *KeywordSetRepository) List(ctx context.Context) ([]*analysis.KeywordSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, domain, keywords, created_at, updated_at
		FROM keyword_sets ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list keyword sets")
	}
	defer rows.Close()

	var out []*analysis.KeywordSet
	for rows.Next() {
		ks, err := scanKeywordSet(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to scan keyword set row")
		}
		out = append(out, ks)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "keyword set row iteration failed")
	}
	return out, nil
}

// Delete removes the keyword set.
func (r *KeywordSetRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM keyword_sets WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to delete keyword set")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeKeywordSetNotFound, "keyword set %q not found", name)
	}
	return nil
}
