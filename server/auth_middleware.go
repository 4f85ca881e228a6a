package server

import (
	"context"
	"net/http"

	"github.com/zcrmhq/auth-gateway/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the authenticated caller identity
	ContextKeyIdentity ContextKey = "identity"
)

// RequireAuth resolves the caller identity (bearer first, cookie second)
// and injects it into the request context. Unauthenticated requests get a
// 401 JSON error; authentication failures never reach business logic as
// anything other than that explicit result.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.authenticator.Authenticate(r)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
		next(w, r.WithContext(ctx))
	}
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(*auth.Identity)
	return identity, ok
}
