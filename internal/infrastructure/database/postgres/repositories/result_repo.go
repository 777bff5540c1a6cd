package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// ResultRepository is the PostgreSQL implementation of
// analysis.ResultRepository.  Keywords, features and matches are stored as
// JSONB so the full analysis detail survives round trips without satellite
// tables; the assessment fields get their own columns for reporting queries.
type ResultRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewResultRepository constructs a ready-to-use ResultRepository.
func NewResultRepository(pool *pgxpool.Pool, log logging.Logger) *ResultRepository {
	return &ResultRepository{pool: pool, log: log}
}

// Save persists one analysis result.
func (r *ResultRepository) Save(ctx context.Context, res *analysis.Result) error {
	keywordsJSON, err := json.Marshal(res.Keywords)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode result keywords")
	}
	domainJSON, err := json.Marshal(res.DomainKeywords)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode result domain keywords")
	}
	featuresJSON, err := json.Marshal(res.Features)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode result features")
	}
	matchesJSON, err := json.Marshal(res.Matches)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode result matches")
	}
	factorsJSON, err := json.Marshal(res.Assessment.RiskFactors)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to encode result risk factors")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO analysis_results (id, job_id, document_id, keywords,
			domain_keywords, features, matches, risk_level, risk_factors,
			high_similarity_count, average_top_similarity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		res.ID, res.JobID, res.DocumentID, keywordsJSON,
		domainJSON, featuresJSON, matchesJSON, res.Assessment.OverallRisk, factorsJSON,
		res.Assessment.HighSimilarityCount, res.Assessment.AverageTopSimilarity, res.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to insert analysis result")
	}
	return nil
}

const resultColumns = `id, job_id, document_id, keywords, domain_keywords, features,
	matches, risk_level, risk_factors, high_similarity_count, average_top_similarity, created_at`

func scanResult(row interface{ Scan(dest ...any) error }) (*analysis.Result, error) {
	var (
		res          analysis.Result
		keywordsJSON []byte
		domainJSON   []byte
		featuresJSON []byte
		matchesJSON  []byte
		factorsJSON  []byte
	)
	err := row.Scan(&res.ID, &res.JobID, &res.DocumentID, &keywordsJSON,
		&domainJSON, &featuresJSON, &matchesJSON, &res.Assessment.OverallRisk,
		&factorsJSON, &res.Assessment.HighSimilarityCount,
		&res.Assessment.AverageTopSimilarity, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(keywordsJSON, &res.Keywords); err != nil {
		return nil, err
	}
	if len(domainJSON) > 0 {
		if err := json.Unmarshal(domainJSON, &res.DomainKeywords); err != nil {
			return nil, err
		}
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &res.Features); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(matchesJSON, &res.Matches); err != nil {
		return nil, err
	}
	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &res.Assessment.RiskFactors); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// GetLatestByDocument returns the most recent result for the document.
func (r *ResultRepository) GetLatestByDocument(ctx context.Context, documentID uuid.UUID) (*analysis.Result, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+resultColumns+` FROM analysis_results
		WHERE document_id = $1
		ORDER BY created_at DESC LIMIT 1`, documentID)
	res, err := scanResult(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeResultsUnavailable,
				"no analysis results for document %s", documentID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to query analysis result")
	}
	return res, nil
}

// ListByDocument returns the document's results, newest first.
func (r *ResultRepository) ListByDocument(ctx context.Context, documentID uuid.UUID, limit int) ([]*analysis.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+resultColumns+` FROM analysis_results
		WHERE document_id = $1
		ORDER BY created_at DESC LIMIT $2`, documentID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list analysis results")
	}
	defer rows.Close()

	var out []*analysis.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to scan analysis result row")
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "analysis result row iteration failed")
	}
	return out, nil
}
