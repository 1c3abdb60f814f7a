package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdamiba/sandstone-project/internal/apperr"
)

// Field limits for documents.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxContentBytes      = 1_000_000
	MaxTagLength         = 50
)

// Document represents a versioned UTF-8 text document with metadata and
// visibility policy. Version advances exactly when the content changes.
type Document struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Content          string    `json:"content"`
	Tags             []string  `json:"tags"`
	IsPublic         bool      `json:"isPublic"`
	AllowComments    bool      `json:"allowComments"`
	AllowSuggestions bool      `json:"allowSuggestions"`
	RequireApproval  bool      `json:"requireApproval"`
	OwnerID          string    `json:"ownerId"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	LastEditedAt     time.Time `json:"lastEditedAt"`
}

// NewDocument creates a new document owned by ownerID.
func NewDocument(ownerID, title string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:           uuid.New(),
		Title:        title,
		Tags:         []string{},
		OwnerID:      ownerID,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastEditedAt: now,
	}
}

// Validate checks the document's field constraints.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return apperr.Validation("title is required")
	}
	if len(d.Title) > MaxTitleLength {
		return apperr.Validation("title exceeds 255 characters")
	}
	if len(d.Description) > MaxDescriptionLength {
		return apperr.Validation("description exceeds 1000 characters")
	}
	if len(d.Content) > MaxContentBytes {
		return apperr.Validation("content exceeds 1000000 bytes")
	}
	for _, tag := range d.Tags {
		if tag == "" {
			return apperr.Validation("tags must not be empty")
		}
		if len(tag) > MaxTagLength {
			return apperr.Validation("tag exceeds 50 characters")
		}
	}
	return nil
}

// DocumentUpdate describes a partial update of document metadata. Nil fields
// are left untouched.
type DocumentUpdate struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Content          *string   `json:"content,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	IsPublic         *bool     `json:"is_public,omitempty"`
	AllowComments    *bool     `json:"allow_comments,omitempty"`
	AllowSuggestions *bool     `json:"allow_suggestions,omitempty"`
	RequireApproval  *bool     `json:"require_approval,omitempty"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Search string
	Public *bool
	Limit  int
	Offset int
}
