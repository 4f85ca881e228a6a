package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/zcrmhq/auth-gateway/backend"
	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/session"
	"github.com/zcrmhq/auth-gateway/token"
)

// OAuthCallbackHandler converts an identity provider authorization code
// into a first-party session. The flow is linear with no retries: every
// failure is terminal and redirects to the login page with a
// machine-readable error code.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")
		code := r.FormValue("code")
		requested := r.FormValue("redirect")

		// Provider-side denial: no exchange, no backend calls.
		if errorParam != "" {
			redirectLoginError(w, r, errorParam, errorDesc)
			return
		}

		if code == "" {
			redirectLoginError(w, r, "missing_code", "authorization code missing from callback")
			return
		}

		// Step 2: exchange the code with the identity provider server-side.
		identity, err := s.idp.ExchangeCode(r.Context(), code)
		if err != nil {
			s.log.Warn().Err(err).Msg("identity provider exchange failed")
			redirectLoginError(w, r, "exchange_failed", "identity provider exchange failed")
			return
		}

		// Step 3: hand the verified result to the backend over the
		// key-authenticated channel. The backend is the sole token issuer.
		resp, err := s.backend.ExchangeOAuthUser(r.Context(), backend.ExchangeRequest{
			UserID:    identity.Sub,
			Email:     identity.Email,
			FullName:  identity.Name,
			AvatarURL: identity.AvatarURL,
			Provider:  identity.Provider,
		})
		if err != nil {
			errCode := "exchange_failed"
			if apperrors.Is(err, apperrors.ErrBackendUnavailable) {
				errCode = "backend_unavailable"
			}
			s.log.Warn().Err(err).Str("error_code", errCode).Msg("backend exchange failed")
			redirectLoginError(w, r, errCode, "could not complete sign-in")
			return
		}

		// Step 4: missing tokens in a 2xx response is a contract violation,
		// never a retry case.
		if resp.Tokens == nil || resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
			s.log.Error().Str("email", identity.Email).Msg("backend exchange response carried no tokens")
			redirectLoginError(w, r, "no_tokens", "sign-in could not be completed")
			return
		}

		userID, email := identity.Sub, identity.Email
		if resp.User != nil {
			userID, email = resp.User.ID, resp.User.Email
		}

		tenantID, role := "", ""
		if len(resp.Tenants) > 0 {
			tenantID, role = resp.Tenants[0].ID, resp.Tenants[0].Role
		}

		// Step 5: establish the session.
		if err := s.store.Create(w, &session.Session{
			UserID:       userID,
			Email:        email,
			TenantID:     tenantID,
			Role:         role,
			AccessToken:  resp.Tokens.AccessToken,
			RefreshToken: resp.Tokens.RefreshToken,
			ExpiresAt:    tokenExpiry(resp.Tokens),
		}); err != nil {
			s.log.Error().Err(err).Msg("failed to create session")
			redirectLoginError(w, r, "session_failed", "could not establish session")
			return
		}

		// Step 6: deterministic redirect decision.
		http.Redirect(w, r, postLoginRedirect(resp, requested), http.StatusSeeOther)
	}
}

// tokenExpiry derives the access token expiry from its own exp claim when
// decodable, else from the advertised expiresIn.
func tokenExpiry(pair *backend.TokenPair) int64 {
	if claims, err := token.DecodeUnverified(pair.AccessToken); err == nil && claims.Exp > 0 {
		return claims.Exp
	}
	if pair.ExpiresAt > 0 {
		return pair.ExpiresAt
	}
	return time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second).Unix()
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, code, description string) {
	v := url.Values{}
	v.Set("error", code)
	if description != "" {
		v.Set("error_description", description)
	}
	http.Redirect(w, r, RouteLoginPage+"?"+v.Encode(), http.StatusSeeOther)
}
