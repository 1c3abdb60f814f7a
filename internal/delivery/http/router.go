package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/ratelimit"
)

// Router assembles the HTTP surface.
type Router struct {
	handler   *Handler
	wsHandler http.HandlerFunc
	resolver  Resolver
	limiter   ratelimit.Limiter
	logger    *zap.Logger
}

// NewRouter creates a new HTTP router. wsHandler serves the realtime
// endpoint and shares the auth middleware with the REST routes.
func NewRouter(handler *Handler, wsHandler http.HandlerFunc, resolver Resolver, limiter ratelimit.Limiter, logger *zap.Logger) *Router {
	return &Router{
		handler:   handler,
		wsHandler: wsHandler,
		resolver:  resolver,
		limiter:   limiter,
		logger:    logger,
	}
}

// Setup sets up the HTTP routes.
func (r *Router) Setup() http.Handler {
	root := mux.NewRouter()
	root.HandleFunc("/healthz", r.handler.Healthz).Methods(http.MethodGet)

	api := root.PathPrefix("/").Subrouter()
	api.HandleFunc("/documents", r.handler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents", r.handler.CreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", r.handler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", r.handler.UpdateDocument).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}", r.handler.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/changes", r.handler.ApplyChanges).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/collaborators", r.handler.ListCollaborators).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/collaborators", r.handler.AddCollaborator).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/collaborators/{userId}", r.handler.RemoveCollaborator).Methods(http.MethodDelete)
	api.HandleFunc("/search", r.handler.SearchDocuments).Methods(http.MethodGet)
	if r.wsHandler != nil {
		api.HandleFunc("/ws", r.wsHandler).Methods(http.MethodGet)
	}

	api.Use(
		mux.MiddlewareFunc(AuthMiddleware(r.resolver)),
		mux.MiddlewareFunc(RateLimitMiddleware(r.limiter, r.logger)),
	)

	return ApplyMiddleware(root,
		RecoveryMiddleware(r.logger),
		LoggingMiddleware(r.logger),
	)
}
