package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationKind classifies an applied text mutation.
type OperationKind string

const (
	// OperationInsert added text without removing any.
	OperationInsert OperationKind = "insert"
	// OperationDelete removed text without adding any.
	OperationDelete OperationKind = "delete"
	// OperationReplace swapped one span of text for another.
	OperationReplace OperationKind = "replace"
)

// Operation represents one entry in a document's append-only operation log.
// Sequence numbers are strictly increasing and contiguous per document,
// starting at 1.
type Operation struct {
	DocumentID uuid.UUID     `json:"documentId"`
	Sequence   int64         `json:"sequence"`
	Kind       OperationKind `json:"kind"`
	Position   int           `json:"position"`
	Length     int           `json:"length"`
	Content    string        `json:"content"`
	UserID     string        `json:"userId"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// KindOfChange derives the operation kind from the replaced and inserted
// text lengths.
func KindOfChange(textToReplace, newText string) OperationKind {
	switch {
	case len(textToReplace) == 0:
		return OperationInsert
	case len(newText) == 0:
		return OperationDelete
	default:
		return OperationReplace
	}
}

// AnalyticsRecord summarizes one write against a document, credited to the
// acting principal.
type AnalyticsRecord struct {
	DocumentID uuid.UUID      `json:"documentId"`
	UserID     string         `json:"userId"`
	Kind       string         `json:"kind"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
