package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

// CreateDocumentInput carries the fields accepted on document creation.
type CreateDocumentInput struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	IsPublic         bool     `json:"is_public"`
	AllowComments    bool     `json:"allow_comments"`
	AllowSuggestions bool     `json:"allow_suggestions"`
	RequireApproval  bool     `json:"require_approval"`
}

// DocumentUseCase implements document CRUD, listing, search, and collaborator
// management on top of the persistence ports.
type DocumentUseCase struct {
	docs      domain.DocumentRepository
	collabs   domain.CollaboratorRepository
	analytics domain.AnalyticsRepository
	logger    *zap.Logger
}

// NewDocumentUseCase creates a new document use case.
func NewDocumentUseCase(docs domain.DocumentRepository, collabs domain.CollaboratorRepository, analytics domain.AnalyticsRepository, logger *zap.Logger) *DocumentUseCase {
	return &DocumentUseCase{
		docs:      docs,
		collabs:   collabs,
		analytics: analytics,
		logger:    logger,
	}
}

// Create creates a document owned by userID with an implicit owner binding.
func (uc *DocumentUseCase) Create(ctx context.Context, userID string, input CreateDocumentInput) (*domain.Document, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}

	doc := domain.NewDocument(userID, input.Title)
	doc.Content = input.Content
	doc.Description = input.Description
	if input.Tags != nil {
		doc.Tags = input.Tags
	}
	doc.IsPublic = input.IsPublic
	doc.AllowComments = input.AllowComments
	doc.AllowSuggestions = input.AllowSuggestions
	doc.RequireApproval = input.RequireApproval
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := uc.collabs.Upsert(ctx, domain.NewCollaborator(doc.ID, userID, domain.PermissionOwner)); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, doc.ID, userID, "document_created", nil)
	uc.logger.Info("Created document",
		zap.String("document_id", doc.ID.String()),
		zap.String("owner_id", userID))
	return doc, nil
}

// Get returns the document when userID may read it; missing and not-readable
// documents are indistinguishable to the caller.
func (uc *DocumentUseCase) Get(ctx context.Context, id uuid.UUID, userID string) (*domain.Document, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}

	doc, err := uc.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	binding, err := uc.collabs.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanRead(doc, binding, userID) {
		return nil, apperr.NotFound("document not found")
	}
	return doc, nil
}

// Update applies a partial metadata/content update.
func (uc *DocumentUseCase) Update(ctx context.Context, id uuid.UUID, userID string, update domain.DocumentUpdate) (*domain.Document, error) {
	doc, err := uc.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	binding, err := uc.collabs.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanWrite(doc, binding, userID) {
		return nil, apperr.Forbidden("you do not have permission to edit this document")
	}

	contentChanged := false
	if update.Title != nil {
		doc.Title = *update.Title
	}
	if update.Description != nil {
		doc.Description = *update.Description
	}
	if update.Content != nil && *update.Content != doc.Content {
		doc.Content = *update.Content
		contentChanged = true
	}
	if update.Tags != nil {
		doc.Tags = *update.Tags
	}
	if update.IsPublic != nil {
		doc.IsPublic = *update.IsPublic
	}
	if update.AllowComments != nil {
		doc.AllowComments = *update.AllowComments
	}
	if update.AllowSuggestions != nil {
		doc.AllowSuggestions = *update.AllowSuggestions
	}
	if update.RequireApproval != nil {
		doc.RequireApproval = *update.RequireApproval
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return uc.docs.Update(ctx, doc, contentChanged)
}

// Delete removes a document. Only the owner may delete; everyone else sees
// not-found.
func (uc *DocumentUseCase) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	if userID == "" {
		return apperr.Unauthorized("authentication required")
	}

	doc, err := uc.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.OwnerID != userID {
		return apperr.NotFound("document not found")
	}

	if err := uc.docs.Delete(ctx, id); err != nil {
		return err
	}
	uc.recordEvent(ctx, id, userID, "document_deleted", nil)
	uc.logger.Info("Deleted document",
		zap.String("document_id", id.String()),
		zap.String("owner_id", userID))
	return nil
}

// List returns documents visible to userID.
func (uc *DocumentUseCase) List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]*domain.Document, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	docs, err := uc.docs.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return docs, nil
}

// AddCollaborator creates or replaces a binding. Owner only.
func (uc *DocumentUseCase) AddCollaborator(ctx context.Context, id uuid.UUID, ownerID, userID string, permission domain.Permission) (*domain.Collaborator, error) {
	if ownerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	if !permission.Valid() {
		return nil, apperr.Validation("unknown permission level")
	}

	doc, err := uc.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, apperr.Forbidden("only the owner may manage collaborators")
	}

	binding := domain.NewCollaborator(id, userID, permission)
	if err := uc.collabs.Upsert(ctx, binding); err != nil {
		return nil, err
	}
	return binding, nil
}

// RemoveCollaborator deactivates a binding. Owner only.
func (uc *DocumentUseCase) RemoveCollaborator(ctx context.Context, id uuid.UUID, ownerID, userID string) error {
	if ownerID == "" {
		return apperr.Unauthorized("authentication required")
	}

	doc, err := uc.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return apperr.Forbidden("only the owner may manage collaborators")
	}

	return uc.collabs.Deactivate(ctx, id, userID)
}

// ListCollaborators returns the document's active bindings to readers.
func (uc *DocumentUseCase) ListCollaborators(ctx context.Context, id uuid.UUID, userID string) ([]*domain.Collaborator, error) {
	if _, err := uc.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	bindings, err := uc.collabs.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = []*domain.Collaborator{}
	}
	return bindings, nil
}

// recordEvent writes a best-effort analytics record; failures are logged and
// never surfaced.
func (uc *DocumentUseCase) recordEvent(ctx context.Context, id uuid.UUID, userID, kind string, metadata map[string]any) {
	record := &domain.AnalyticsRecord{
		DocumentID: id,
		UserID:     userID,
		Kind:       kind,
		Metadata:   metadata,
	}
	if err := uc.analytics.Insert(ctx, record); err != nil {
		uc.logger.Warn("Failed to record analytics event",
			zap.String("document_id", id.String()),
			zap.String("kind", kind),
			zap.Error(err))
	}
}
