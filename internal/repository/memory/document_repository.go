package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

// DocumentRepository is an in-memory implementation of
// domain.DocumentRepository. It backs tests and single-process runs.
type DocumentRepository struct {
	documents  map[uuid.UUID]*domain.Document
	operations map[uuid.UUID][]*domain.Operation
	analytics  []*domain.AnalyticsRecord
	bindings   *CollaboratorRepository
	mu         sync.RWMutex
}

// NewDocumentRepository creates a new in-memory document repository. When
// bindings is non-nil, Delete cascades to the document's bindings.
func NewDocumentRepository(bindings *CollaboratorRepository) *DocumentRepository {
	return &DocumentRepository{
		documents:  make(map[uuid.UUID]*domain.Document),
		operations: make(map[uuid.UUID][]*domain.Operation),
		bindings:   bindings,
	}
}

// Create persists a new document.
func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[doc.ID]; exists {
		return apperr.Conflict("document already exists")
	}

	r.documents[doc.ID] = cloneDocument(doc)
	return nil
}

// Get retrieves a document by ID.
func (r *DocumentRepository) Get(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return nil, apperr.NotFound("document not found")
	}
	return cloneDocument(doc), nil
}

// Update persists metadata changes, bumping the version when the content
// changed.
func (r *DocumentRepository) Update(_ context.Context, doc *domain.Document, contentChanged bool) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.documents[doc.ID]
	if !exists {
		return nil, apperr.NotFound("document not found")
	}

	now := time.Now().UTC()
	updated := cloneDocument(doc)
	updated.Version = stored.Version
	updated.UpdatedAt = now
	updated.LastEditedAt = stored.LastEditedAt
	if contentChanged {
		updated.Version = stored.Version + 1
		updated.LastEditedAt = now
	} else {
		updated.Content = stored.Content
	}

	r.documents[doc.ID] = updated
	return cloneDocument(updated), nil
}

// Delete deletes a document and its dependent records.
func (r *DocumentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[id]; !exists {
		return apperr.NotFound("document not found")
	}

	delete(r.documents, id)
	delete(r.operations, id)
	if r.bindings != nil {
		r.bindings.removeByDocument(id)
	}
	return nil
}

// List returns documents visible to userID, narrowed by the filter.
func (r *DocumentRepository) List(_ context.Context, userID string, filter domain.DocumentFilter) ([]*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Document
	for _, doc := range r.documents {
		if !doc.IsPublic && doc.OwnerID != userID && !r.hasBinding(doc.ID, userID) {
			continue
		}
		if filter.Public != nil && doc.IsPublic != *filter.Public {
			continue
		}
		if filter.Search != "" && !matchesSearch(doc, filter.Search) {
			continue
		}
		matched = append(matched, cloneDocument(doc))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], nil
}

// UpdateContent atomically replaces the content and bumps the version.
func (r *DocumentRepository) UpdateContent(_ context.Context, id uuid.UUID, newContent string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.updateContentLocked(id, newContent)
}

// CommitChange applies the change-apply transaction against the maps under a
// single lock hold, mirroring the relational implementation's atomicity.
func (r *DocumentRepository) CommitChange(_ context.Context, id uuid.UUID, newContent string, ops []domain.Operation, record *domain.AnalyticsRecord) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.updateContentLocked(id, newContent)
	if err != nil {
		return nil, err
	}

	next := int64(len(r.operations[id])) + 1
	for i := range ops {
		op := ops[i]
		op.DocumentID = id
		op.Sequence = next
		op.CreatedAt = time.Now().UTC()
		r.operations[id] = append(r.operations[id], &op)
		next++
	}

	if record != nil {
		rec := *record
		rec.CreatedAt = time.Now().UTC()
		r.analytics = append(r.analytics, &rec)
	}

	return doc, nil
}

func (r *DocumentRepository) updateContentLocked(id uuid.UUID, newContent string) (*domain.Document, error) {
	doc, exists := r.documents[id]
	if !exists {
		return nil, apperr.NotFound("document not found")
	}

	now := time.Now().UTC()
	doc.Content = newContent
	doc.Version++
	doc.UpdatedAt = now
	doc.LastEditedAt = now
	return cloneDocument(doc), nil
}

// Operations returns the operation log for a document in sequence order.
func (r *DocumentRepository) Operations(id uuid.UUID) []*domain.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]*domain.Operation, len(r.operations[id]))
	copy(ops, r.operations[id])
	return ops
}

// Analytics returns every analytics record written through CommitChange.
func (r *DocumentRepository) Analytics() []*domain.AnalyticsRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*domain.AnalyticsRecord, len(r.analytics))
	copy(records, r.analytics)
	return records
}

func (r *DocumentRepository) hasBinding(id uuid.UUID, userID string) bool {
	if r.bindings == nil {
		return false
	}
	binding, _ := r.bindings.Get(context.Background(), id, userID)
	return binding != nil && binding.Active
}

func matchesSearch(doc *domain.Document, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(doc.Title), search) {
		return true
	}
	if strings.Contains(strings.ToLower(doc.Description), search) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func cloneDocument(doc *domain.Document) *domain.Document {
	clone := *doc
	clone.Tags = append([]string(nil), doc.Tags...)
	return &clone
}
