package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

// ApplyChanges handles POST /documents/{id}/changes. The body is either a
// single op or a batch; the engine reports per-op outcomes and the new
// revision, and live rooms hear about the committed content.
func (h *Handler) ApplyChanges(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req domain.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("invalid request body"))
		return
	}

	// The commit must run to completion even if the client goes away
	// mid-request; a disconnect must not be observable to the database layer.
	result, err := h.changes.Apply(context.WithoutCancel(r.Context()), id, userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.NotifyDocumentUpdated(id, userID, result.DocumentText, result.Changes.DocumentVersion)
	writeJSON(w, http.StatusOK, result)
}
