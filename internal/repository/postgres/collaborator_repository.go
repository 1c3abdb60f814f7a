package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdamiba/sandstone-project/internal/domain"
)

// CollaboratorRepository implements domain.CollaboratorRepository using pgx.
type CollaboratorRepository struct {
	pool *pgxpool.Pool
}

// NewCollaboratorRepository constructs a PostgreSQL backed binding store.
func NewCollaboratorRepository(pool *pgxpool.Pool) *CollaboratorRepository {
	return &CollaboratorRepository{pool: pool}
}

// Upsert inserts or replaces the binding for (document, principal). The
// primary key keeps one row per pair.
func (r *CollaboratorRepository) Upsert(ctx context.Context, binding *domain.Collaborator) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO document_collaborators (document_id, user_id, permission, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, user_id)
		DO UPDATE SET permission = EXCLUDED.permission, active = EXCLUDED.active, updated_at = now()`,
		binding.DocumentID, binding.UserID, binding.Permission, binding.Active,
		binding.CreatedAt, binding.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert collaborator: %w", mapError(err))
	}
	return nil
}

// Get returns the binding for (documentID, userID), or (nil, nil) when none
// exists.
func (r *CollaboratorRepository) Get(ctx context.Context, documentID uuid.UUID, userID string) (*domain.Collaborator, error) {
	var binding domain.Collaborator
	err := r.pool.QueryRow(ctx, `
		SELECT document_id, user_id, permission, active, created_at, updated_at
		FROM document_collaborators
		WHERE document_id = $1 AND user_id = $2`,
		documentID, userID).Scan(
		&binding.DocumentID, &binding.UserID, &binding.Permission,
		&binding.Active, &binding.CreatedAt, &binding.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to get collaborator: %w", mapError(err))
	}
	return &binding, nil
}

// ListByDocument returns all active bindings for the document.
func (r *CollaboratorRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*domain.Collaborator, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT document_id, user_id, permission, active, created_at, updated_at
		FROM document_collaborators
		WHERE document_id = $1 AND active
		ORDER BY created_at`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list collaborators: %w", mapError(err))
	}
	defer rows.Close()

	var bindings []*domain.Collaborator
	for rows.Next() {
		var binding domain.Collaborator
		if err := rows.Scan(&binding.DocumentID, &binding.UserID, &binding.Permission,
			&binding.Active, &binding.CreatedAt, &binding.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan collaborator: %w", mapError(err))
		}
		bindings = append(bindings, &binding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to list collaborators: %w", mapError(err))
	}
	return bindings, nil
}

// Deactivate marks the binding inactive, keeping the row.
func (r *CollaboratorRepository) Deactivate(ctx context.Context, documentID uuid.UUID, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE document_collaborators
		SET active = FALSE, updated_at = now()
		WHERE document_id = $1 AND user_id = $2`,
		documentID, userID)
	if err != nil {
		return fmt.Errorf("postgres: failed to deactivate collaborator: %w", mapError(err))
	}
	return nil
}
