package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
	"github.com/jdamiba/sandstone-project/internal/usecase"
)

func documentIDFrom(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, apperr.BadRequest("document id must be a valid UUID")
	}
	return id, nil
}

// CreateDocument handles POST /documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())

	var input usecase.CreateDocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.BadRequest("invalid request body"))
		return
	}

	doc, err := h.docs.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.docs.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PUT /documents/{id}.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var update domain.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, apperr.BadRequest("invalid request body"))
		return
	}

	doc, err := h.docs.Update(r.Context(), id, userID, update)
	if err != nil {
		writeError(w, err)
		return
	}
	if update.Content != nil {
		h.hub.NotifyDocumentUpdated(doc.ID, userID, doc.Content, doc.Version)
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.docs.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())

	filter, err := parseListFilter(r, "search")
	if err != nil {
		writeError(w, err)
		return
	}

	docs, err := h.docs.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// SearchDocuments handles GET /search. Same semantics as listing with a
// search term; q is required.
func (h *Handler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())

	filter, err := parseListFilter(r, "q")
	if err != nil {
		writeError(w, err)
		return
	}
	if filter.Search == "" {
		writeError(w, apperr.BadRequest("q is required"))
		return
	}

	docs, err := h.docs.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// AddCollaborator handles POST /documents/{id}/collaborators.
func (h *Handler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input struct {
		UserID     string            `json:"userId"`
		Permission domain.Permission `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.BadRequest("invalid request body"))
		return
	}
	if input.UserID == "" {
		writeError(w, apperr.BadRequest("userId is required"))
		return
	}

	binding, err := h.docs.AddCollaborator(r.Context(), id, ownerID, input.UserID, input.Permission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, binding)
}

// RemoveCollaborator handles DELETE /documents/{id}/collaborators/{userId}.
func (h *Handler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.docs.RemoveCollaborator(r.Context(), id, ownerID, mux.Vars(r)["userId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListCollaborators handles GET /documents/{id}/collaborators.
func (h *Handler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	userID, _ := PrincipalFrom(r.Context())
	id, err := documentIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bindings, err := h.docs.ListCollaborators(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bindings)
}
