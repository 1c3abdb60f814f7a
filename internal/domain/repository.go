package domain

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository is the persistence port for documents. Implementations
// must provide row-level atomicity for the content paths: UpdateContent and
// CommitChange bump the version in the same statement that swaps the content,
// which is the serialization point for concurrent writers.
type DocumentRepository interface {
	// Create persists a new document.
	Create(ctx context.Context, doc *Document) error

	// Get returns the document or apperr.NotFound.
	Get(ctx context.Context, id uuid.UUID) (*Document, error)

	// Update persists metadata changes. When contentChanged is set the
	// version is bumped and the last-edit timestamp refreshed atomically.
	// Returns the stored document.
	Update(ctx context.Context, doc *Document, contentChanged bool) (*Document, error)

	// Delete removes the document and its dependent records.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns documents visible to userID, narrowed by the filter.
	List(ctx context.Context, userID string, filter DocumentFilter) ([]*Document, error)

	// UpdateContent atomically replaces the content and bumps the version.
	// Used by the realtime content broadcast path.
	UpdateContent(ctx context.Context, id uuid.UUID, newContent string) (*Document, error)

	// CommitChange runs the change-apply transaction: replace content and
	// bump version, append one operation record per applied op with the next
	// sequence numbers, and insert the analytics record. All or nothing.
	CommitChange(ctx context.Context, id uuid.UUID, newContent string, ops []Operation, record *AnalyticsRecord) (*Document, error)
}

// CollaboratorRepository is the persistence port for bindings.
type CollaboratorRepository interface {
	// Upsert inserts or replaces the binding for (document, principal).
	Upsert(ctx context.Context, binding *Collaborator) error

	// Get returns the binding for (documentID, userID), or (nil, nil) when
	// no binding exists.
	Get(ctx context.Context, documentID uuid.UUID, userID string) (*Collaborator, error)

	// ListByDocument returns all active bindings for the document.
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*Collaborator, error)

	// Deactivate marks the binding inactive, keeping the row.
	Deactivate(ctx context.Context, documentID uuid.UUID, userID string) error
}

// AnalyticsRepository records write events outside the change transaction.
type AnalyticsRepository interface {
	Insert(ctx context.Context, record *AnalyticsRecord) error
}
