package http

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

// Resolver extracts the opaque principal the external identity provider
// attached to a request. The service never inspects the principal beyond
// equality.
type Resolver interface {
	Resolve(r *http.Request) string
}

// HeaderResolver trusts the identity headers set by the authenticating
// gateway: X-User-ID first, a bearer token as the opaque fallback.
type HeaderResolver struct{}

// Resolve returns the request's principal, or "" when unauthenticated.
func (HeaderResolver) Resolve(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey, userID)
}

// PrincipalFrom returns the authenticated principal stored on the context.
func PrincipalFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(principalKey).(string)
	return userID, ok && userID != ""
}
