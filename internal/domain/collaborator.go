package domain

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the access level of a collaborator binding.
type Permission string

const (
	// PermissionOwner grants full control over the document.
	PermissionOwner Permission = "owner"
	// PermissionEditor grants read and write access.
	PermissionEditor Permission = "editor"
	// PermissionViewer grants read-only access.
	PermissionViewer Permission = "viewer"
	// PermissionCommenter grants read access and commenting.
	PermissionCommenter Permission = "commenter"
)

// Valid reports whether p is a known permission level.
func (p Permission) Valid() bool {
	switch p {
	case PermissionOwner, PermissionEditor, PermissionViewer, PermissionCommenter:
		return true
	}
	return false
}

// CanEdit reports whether the permission allows content mutation.
func (p Permission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEditor
}

// Collaborator represents an explicit (document, principal, permission)
// binding. At most one binding exists per (document, principal).
type Collaborator struct {
	DocumentID uuid.UUID  `json:"documentId"`
	UserID     string     `json:"userId"`
	Permission Permission `json:"permission"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewCollaborator creates an active binding.
func NewCollaborator(documentID uuid.UUID, userID string, permission Permission) *Collaborator {
	now := time.Now().UTC()
	return &Collaborator{
		DocumentID: documentID,
		UserID:     userID,
		Permission: permission,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
