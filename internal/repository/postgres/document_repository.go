package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

const documentColumns = `id, title, description, content, tags, is_public,
	allow_comments, allow_suggestions, require_approval, owner_id, version,
	created_at, updated_at, last_edited_at`

// DocumentRepository implements domain.DocumentRepository using pgx.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs a PostgreSQL backed document store.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create persists a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		doc.ID, doc.Title, doc.Description, doc.Content, doc.Tags, doc.IsPublic,
		doc.AllowComments, doc.AllowSuggestions, doc.RequireApproval, doc.OwnerID,
		doc.Version, doc.CreatedAt, doc.UpdatedAt, doc.LastEditedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create document: %w", mapError(err))
	}
	return nil
}

// Get returns the document or apperr.NotFound.
func (r *DocumentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("document not found")
		}
		return nil, fmt.Errorf("postgres: failed to get document: %w", mapError(err))
	}
	return doc, nil
}

// Update persists metadata changes, bumping the version atomically when the
// content changed.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document, contentChanged bool) (*domain.Document, error) {
	query := `
		UPDATE documents
		SET title = $2, description = $3, tags = $4, is_public = $5,
			allow_comments = $6, allow_suggestions = $7, require_approval = $8,
			updated_at = now()`
	args := []any{doc.ID, doc.Title, doc.Description, doc.Tags, doc.IsPublic,
		doc.AllowComments, doc.AllowSuggestions, doc.RequireApproval}
	if contentChanged {
		query += `, content = $9, version = version + 1, last_edited_at = now()`
		args = append(args, doc.Content)
	}
	query += ` WHERE id = $1 RETURNING ` + documentColumns

	updated, err := scanDocument(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("document not found")
		}
		return nil, fmt.Errorf("postgres: failed to update document: %w", mapError(err))
	}
	return updated, nil
}

// Delete removes the document; dependent rows cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete document: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document not found")
	}
	return nil
}

// List returns documents visible to userID, narrowed by the filter.
func (r *DocumentRepository) List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]*domain.Document, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + documentColumns + ` FROM documents d WHERE
		(d.is_public OR d.owner_id = $1 OR EXISTS (
			SELECT 1 FROM document_collaborators c
			WHERE c.document_id = d.id AND c.user_id = $1 AND c.active
		))`)
	args := []any{userID}

	if filter.Public != nil {
		args = append(args, *filter.Public)
		fmt.Fprintf(&query, " AND d.is_public = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		fmt.Fprintf(&query, ` AND (d.title ILIKE $%d OR d.description ILIKE $%d
			OR EXISTS (SELECT 1 FROM unnest(d.tags) t WHERE t ILIKE $%d))`, n, n, n)
	}

	query.WriteString(" ORDER BY d.updated_at DESC")
	args = append(args, filter.Limit)
	fmt.Fprintf(&query, " LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	fmt.Fprintf(&query, " OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list documents: %w", mapError(err))
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan document: %w", mapError(err))
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to list documents: %w", mapError(err))
	}
	return docs, nil
}

// UpdateContent atomically replaces the content and bumps the version.
func (r *DocumentRepository) UpdateContent(ctx context.Context, id uuid.UUID, newContent string) (*domain.Document, error) {
	doc, err := updateContent(ctx, r.pool, id, newContent)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CommitChange runs the change-apply transaction: content plus version in
// one UPDATE, operation records with the next sequence numbers, and the
// analytics record. Rolled back as a unit on any failure.
func (r *DocumentRepository) CommitChange(ctx context.Context, id uuid.UUID, newContent string, ops []domain.Operation, record *domain.AnalyticsRecord) (*domain.Document, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to begin transaction: %w", mapError(err))
	}
	defer tx.Rollback(ctx)

	doc, err := updateContent(ctx, tx, id, newContent)
	if err != nil {
		return nil, err
	}

	for _, op := range ops {
		_, err := tx.Exec(ctx, `
			INSERT INTO document_operations (document_id, sequence, kind, position, length, content, user_id)
			VALUES ($1,
				(SELECT COALESCE(MAX(sequence), 0) + 1 FROM document_operations WHERE document_id = $1),
				$2, $3, $4, $5, $6)`,
			id, op.Kind, op.Position, op.Length, op.Content, op.UserID)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to append operation: %w", mapError(err))
		}
	}

	if record != nil {
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to encode analytics metadata: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO document_analytics (document_id, user_id, kind, metadata)
			VALUES ($1, $2, $3, $4)`,
			record.DocumentID, record.UserID, record.Kind, metadata)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to insert analytics record: %w", mapError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: failed to commit change: %w", mapError(err))
	}
	return doc, nil
}

// queryRower is satisfied by both the pool and a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateContent(ctx context.Context, q queryRower, id uuid.UUID, newContent string) (*domain.Document, error) {
	row := q.QueryRow(ctx, `
		UPDATE documents
		SET content = $2, version = version + 1, updated_at = now(), last_edited_at = now()
		WHERE id = $1
		RETURNING `+documentColumns,
		id, newContent)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("document not found")
		}
		return nil, fmt.Errorf("postgres: failed to update content: %w", mapError(err))
	}
	return doc, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.Content, &doc.Tags,
		&doc.IsPublic, &doc.AllowComments, &doc.AllowSuggestions, &doc.RequireApproval,
		&doc.OwnerID, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt, &doc.LastEditedAt)
	if err != nil {
		return nil, err
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return &doc, nil
}
