package refresh

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zcrmhq/auth-gateway/backend"
	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/internal/utils"
	"github.com/zcrmhq/auth-gateway/session"
	"github.com/zcrmhq/auth-gateway/token"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenRefresher exchanges a refresh token for a new token pair.
type TokenRefresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*backend.TokenPair, error)
}

// Coordinator keeps the session's access token fresh without unnecessary
// network calls. In the common case Refresh is a local expiry computation
// and returns without touching the network at all.
type Coordinator struct {
	store   *session.Store
	backend TokenRefresher
	buffer  time.Duration
}

// NewCoordinator creates a refresh coordinator. buffer is the window before
// expiry within which a refresh is triggered; it must be the same value the
// request middleware uses.
func NewCoordinator(store *session.Store, refresher TokenRefresher, buffer time.Duration) *Coordinator {
	return &Coordinator{
		store:   store,
		backend: refresher,
		buffer:  buffer,
	}
}

// NeedsRefresh reports whether the access token expires within the buffer
// window. An undecodable token conservatively needs refresh.
func (c *Coordinator) NeedsRefresh(accessToken string) bool {
	claims, err := token.DecodeUnverified(accessToken)
	if err != nil {
		return true
	}
	return claims.ExpiresAt().Sub(NowTimeFunc()) < c.buffer
}

// Refresh exchanges the session's refresh token for new tokens when the
// access token is inside the buffer window. A still-fresh token returns
// immediately with no network I/O. A failed exchange deletes the session:
// an un-refreshable session is not a usable session.
func (c *Coordinator) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *session.Session) (*session.Session, error) {
	if sess.RefreshToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if !c.NeedsRefresh(sess.AccessToken) {
		return sess, nil
	}
	return c.exchange(ctx, w, r, sess)
}

// ForceRefresh performs the exchange unconditionally, skipping the
// freshness short-circuit. Used before operations that require a
// guaranteed-fresh token.
func (c *Coordinator) ForceRefresh(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *session.Session) (*session.Session, error) {
	if sess.RefreshToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	return c.exchange(ctx, w, r, sess)
}

func (c *Coordinator) exchange(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *session.Session) (*session.Session, error) {
	pair, err := c.backend.RefreshTokens(ctx, sess.RefreshToken)
	if err != nil {
		// Fail closed rather than operating on a session we cannot prove
		// is valid.
		log.Info().Str("userId", sess.UserID).Err(err).Msg("token refresh failed, deleting session")
		c.store.Delete(w)
		return nil, apperrors.Wrapf(err, "[Coordinator.Refresh] backend refresh")
	}

	expiresAt := c.expiryFor(pair)

	updated, err := c.store.Update(w, r, session.Partial{
		AccessToken:  utils.Ptr(pair.AccessToken),
		RefreshToken: utils.Ptr(pair.RefreshToken),
		ExpiresAt:    utils.Ptr(expiresAt),
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Coordinator.Refresh] session update")
	}
	return updated, nil
}

// expiryFor derives the session expiry from the new token's own exp claim
// when decodable, else from the advertised expiresIn.
func (c *Coordinator) expiryFor(pair *backend.TokenPair) int64 {
	if claims, err := token.DecodeUnverified(pair.AccessToken); err == nil && claims.Exp > 0 {
		return claims.Exp
	}
	return NowTimeFunc().Add(time.Duration(pair.ExpiresIn) * time.Second).Unix()
}
