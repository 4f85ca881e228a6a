package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/session"
	"github.com/zcrmhq/auth-gateway/token"
)

// Identity is the normalized caller identity resolved from a request.
type Identity struct {
	UserID   string
	Email    string
	TenantID string
	Role     string
}

// SessionReader is the cookie path source of identity.
type SessionReader interface {
	Read(r *http.Request) (*session.Session, error)
}

// Authenticator resolves caller identity from an inbound request, trying
// the bearer token path first and the session cookie second. The order is
// a compatibility bridge: server-to-server callers hold a bearer token,
// browser callers hold only the cookie, and both hit the same endpoints.
type Authenticator struct {
	verifier *token.Verifier
	sessions SessionReader
}

// NewAuthenticator creates an authenticator from a bearer verifier and a
// session store.
func NewAuthenticator(verifier *token.Verifier, sessions SessionReader) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		sessions: sessions,
	}
}

// Authenticate returns the caller's identity or ErrUnauthenticated. A
// request carrying a valid bearer token is resolved without inspecting the
// cookie at all; any bearer failure, including expiry, falls through to the
// cookie path instead of failing the request.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	if raw := bearerToken(r); raw != "" {
		if claims, err := a.verifier.Verify(raw); err == nil {
			return &Identity{
				UserID:   claims.Sub,
				Email:    claims.Email,
				TenantID: claims.TenantID,
			}, nil
		}
	}

	sess, err := a.sessions.Read(r)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	return &Identity{
		UserID:   sess.UserID,
		Email:    sess.Email,
		TenantID: sess.TenantID,
		Role:     sess.Role,
	}, nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
