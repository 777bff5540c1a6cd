// Package repositories provides PostgreSQL-backed implementations of the
// domain repository interfaces.  All queries are parameterised and every
// method translates driver errors into pkg/errors codes so callers never see
// raw SQL failures.
package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE class for unique constraint failures.
const pgUniqueViolation = "23505"

// querier abstracts *pgxpool.Pool and pgx.Tx so repository methods run
// unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ querier = (*pgxpool.Pool)(nil)

// isNoRows reports whether err signals an empty result set.
func isNoRows(err error) bool {
	return stderrors.Is(err, pgx.ErrNoRows)
}

// isUniqueViolation reports whether err is a unique constraint failure on the
// named constraint.  An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
