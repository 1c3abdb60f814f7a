package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdamiba/sandstone-project/internal/domain"
)

type bindingKey struct {
	documentID uuid.UUID
	userID     string
}

// CollaboratorRepository is an in-memory implementation of
// domain.CollaboratorRepository.
type CollaboratorRepository struct {
	bindings map[bindingKey]*domain.Collaborator
	mu       sync.RWMutex
}

// NewCollaboratorRepository creates a new in-memory collaborator repository.
func NewCollaboratorRepository() *CollaboratorRepository {
	return &CollaboratorRepository{
		bindings: make(map[bindingKey]*domain.Collaborator),
	}
}

// Upsert inserts or replaces the binding for (document, principal).
func (r *CollaboratorRepository) Upsert(_ context.Context, binding *domain.Collaborator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *binding
	stored.UpdatedAt = time.Now().UTC()
	r.bindings[bindingKey{binding.DocumentID, binding.UserID}] = &stored
	return nil
}

// Get returns the binding for (documentID, userID), or (nil, nil) when none
// exists.
func (r *CollaboratorRepository) Get(_ context.Context, documentID uuid.UUID, userID string) (*domain.Collaborator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, exists := r.bindings[bindingKey{documentID, userID}]
	if !exists {
		return nil, nil
	}
	clone := *binding
	return &clone, nil
}

// ListByDocument returns all active bindings for the document.
func (r *CollaboratorRepository) ListByDocument(_ context.Context, documentID uuid.UUID) ([]*domain.Collaborator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bindings []*domain.Collaborator
	for key, binding := range r.bindings {
		if key.documentID == documentID && binding.Active {
			clone := *binding
			bindings = append(bindings, &clone)
		}
	}
	return bindings, nil
}

// Deactivate marks the binding inactive.
func (r *CollaboratorRepository) Deactivate(_ context.Context, documentID uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	binding, exists := r.bindings[bindingKey{documentID, userID}]
	if !exists {
		return nil
	}
	binding.Active = false
	binding.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CollaboratorRepository) removeByDocument(documentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.bindings {
		if key.documentID == documentID {
			delete(r.bindings, key)
		}
	}
}
