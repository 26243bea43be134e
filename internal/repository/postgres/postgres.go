// Package postgres implements the domain repositories on pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/repository/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// notFound wraps domain.ErrNotFound with the entity for log context.
func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
}

// invalidTextRepresentation is raised when an id argument does not parse as UUID.
const invalidTextRepresentation = "22P02"

// isMissingRow reports a lookup that matched nothing. An id that is not a
// valid UUID cannot match a row either.
func isMissingRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// resolveStatusMiss explains why a compare-and-set on status touched no rows.
func resolveStatusMiss(ctx context.Context, q querier, candidateID string, expected domain.Status) error {
	var current domain.Status
	err := q.QueryRow(ctx, `SELECT status FROM candidate_profiles WHERE id = $1`, candidateID).Scan(&current)
	if isMissingRow(err) {
		return notFound("candidate", candidateID)
	}
	if err != nil {
		return fmt.Errorf("failed to read candidate status: %w", err)
	}
	return fmt.Errorf("%w: expected %s, found %s", domain.ErrInvalidTransition, expected, current)
}

// gooseUpContext is swapped out in tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema through a database/sql view of the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
