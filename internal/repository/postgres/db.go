// Package postgres implements the persistence ports on PostgreSQL via pgx.
// The document row's version-bumping UPDATE is the serialization point for
// concurrent writers; driver errors are mapped onto the service taxonomy at
// this boundary.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdamiba/sandstone-project/internal/apperr"
)

// SQLSTATE codes mapped onto the error taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
)

// Connect opens a pooled connection and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			allow_comments BOOLEAN NOT NULL DEFAULT TRUE,
			allow_suggestions BOOLEAN NOT NULL DEFAULT TRUE,
			require_approval BOOLEAN NOT NULL DEFAULT FALSE,
			owner_id TEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_edited_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS document_collaborators (
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			permission VARCHAR(16) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (document_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS document_operations (
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			sequence BIGINT NOT NULL,
			kind VARCHAR(16) NOT NULL,
			position INTEGER NOT NULL,
			length INTEGER NOT NULL,
			content TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (document_id, sequence)
		)`,
		`CREATE TABLE IF NOT EXISTS document_analytics (
			id BIGSERIAL PRIMARY KEY,
			document_id UUID NOT NULL,
			user_id TEXT NOT NULL,
			kind VARCHAR(64) NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_document ON document_analytics (document_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", mapError(err))
		}
	}
	return nil
}

// mapError converts driver errors into the service taxonomy: uniqueness to
// Conflict, foreign keys to BadRequest, not-null/check to Validation,
// connectivity to ServiceUnavailable, everything schema-shaped to Internal.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("record not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return apperr.Conflict("record already exists")
		case pgErr.Code == codeForeignKeyViolation:
			return apperr.BadRequest("referenced record does not exist")
		case pgErr.Code == codeNotNullViolation, pgErr.Code == codeCheckViolation:
			return apperr.Validation("record violates a data constraint")
		case strings.HasPrefix(pgErr.Code, "08"):
			return apperr.ServiceUnavailable("database unavailable")
		case strings.HasPrefix(pgErr.Code, "42"):
			return apperr.Internal("database schema error")
		}
		return apperr.Internal("database error")
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.ServiceUnavailable("database unavailable")
	}
	return apperr.Internal("database error")
}
