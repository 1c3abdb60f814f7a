package domain

import (
	"github.com/jdamiba/sandstone-project/internal/apperr"
)

// Request type discriminators for change requests.
const (
	RequestTypeSingle = "single"
	RequestTypeBatch  = "batch"
)

// Change is a single find-and-replace op: the first occurrence of
// TextToReplace is swapped for NewText.
type Change struct {
	TextToReplace string `json:"textToReplace"`
	NewText       string `json:"newText"`
}

// ChangeRequest is the union accepted by the change endpoint: either a single
// op (textToReplace/newText at the top level) or a batch (changes array). The
// presence of the changes field selects the batch shape; mixing the two
// shapes is rejected.
type ChangeRequest struct {
	TextToReplace *string  `json:"textToReplace,omitempty"`
	NewText       *string  `json:"newText,omitempty"`
	Changes       []Change `json:"changes,omitempty"`
}

// IsBatch reports whether the request uses the batch shape.
func (r *ChangeRequest) IsBatch() bool {
	return r.Changes != nil
}

// Type returns the request type discriminator.
func (r *ChangeRequest) Type() string {
	if r.IsBatch() {
		return RequestTypeBatch
	}
	return RequestTypeSingle
}

// Ops normalizes the request into an ordered list of ops. Validate must have
// accepted the request first.
func (r *ChangeRequest) Ops() []Change {
	if r.IsBatch() {
		return r.Changes
	}
	return []Change{{TextToReplace: *r.TextToReplace, NewText: *r.NewText}}
}

// Validate checks the request shape and string size limits.
func (r *ChangeRequest) Validate() error {
	if r.IsBatch() {
		if r.TextToReplace != nil || r.NewText != nil {
			return apperr.BadRequest("request mixes single and batch change shapes")
		}
		if len(r.Changes) == 0 {
			return apperr.BadRequest("changes must not be empty")
		}
		for _, c := range r.Changes {
			if err := validateChange(c.TextToReplace, c.NewText); err != nil {
				return err
			}
		}
		return nil
	}
	if r.TextToReplace == nil || r.NewText == nil {
		return apperr.BadRequest("textToReplace and newText are required")
	}
	return validateChange(*r.TextToReplace, *r.NewText)
}

func validateChange(textToReplace, newText string) error {
	if len(textToReplace) > MaxContentBytes {
		return apperr.BadRequest("textToReplace exceeds 1000000 bytes")
	}
	if len(newText) > MaxContentBytes {
		return apperr.BadRequest("newText exceeds 1000000 bytes")
	}
	return nil
}

// ChangeOutcome is the per-op result of a change request. Position is the
// byte offset at which the replacement happened in the working copy, or -1
// when the target text was not found.
type ChangeOutcome struct {
	TextReplaced string `json:"textReplaced"`
	NewText      string `json:"newText"`
	Position     int    `json:"position"`
	Applied      bool   `json:"applied"`
}

// ChangeSummary aggregates the outcomes of one change request.
type ChangeSummary struct {
	RequestType     string          `json:"requestType"`
	TotalChanges    int             `json:"totalChanges"`
	AppliedChanges  int             `json:"appliedChanges"`
	PerOp           []ChangeOutcome `json:"perOp"`
	DocumentVersion int64           `json:"documentVersion"`
}

// ChangeResult is the change endpoint response body.
type ChangeResult struct {
	DocumentText string        `json:"documentText"`
	Changes      ChangeSummary `json:"changes"`
}
