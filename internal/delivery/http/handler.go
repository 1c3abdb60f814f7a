// Package http exposes the document service's REST surface.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
	"github.com/jdamiba/sandstone-project/internal/hub"
	"github.com/jdamiba/sandstone-project/internal/usecase"
)

// Listing validator bounds.
const (
	defaultListLimit = 10
	maxListLimit     = 100
	maxSearchLength  = 100
)

// Handler handles document HTTP requests.
type Handler struct {
	docs    *usecase.DocumentUseCase
	changes *usecase.ChangeUseCase
	hub     *hub.Hub
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(docs *usecase.DocumentUseCase, changes *usecase.ChangeUseCase, h *hub.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		docs:    docs,
		changes: changes,
		hub:     h,
		logger:  logger,
	}
}

// errorBody is the uniform error response shape. The HTTP status always
// equals Code.
type errorBody struct {
	Error     string         `json:"error"`
	Code      int            `json:"code"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	writeJSON(w, appErr.Code, errorBody{
		Error:     appErr.Message,
		Code:      appErr.Code,
		Details:   appErr.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// parseListFilter validates the listing query parameters: limit in [1, 100]
// defaulting to 10, offset >= 0 defaulting to 0, search 1..100 chars, public
// a literal true/false.
func parseListFilter(r *http.Request, searchParam string) (domain.DocumentFilter, error) {
	filter := domain.DocumentFilter{Limit: defaultListLimit}
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return filter, apperr.BadRequest("limit must be an integer between 1 and 100")
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, apperr.BadRequest("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if raw := query.Get(searchParam); raw != "" {
		if len(raw) > maxSearchLength {
			return filter, apperr.BadRequest("search must be between 1 and 100 characters")
		}
		filter.Search = raw
	}
	if raw := query.Get("public"); raw != "" {
		switch raw {
		case "true":
			public := true
			filter.Public = &public
		case "false":
			public := false
			filter.Public = &public
		default:
			return filter, apperr.BadRequest("public must be true or false")
		}
	}
	return filter, nil
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
