package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/internal/utils"
	"github.com/zcrmhq/auth-gateway/session"
)

const contentTypeJSON = "application/json; charset=utf-8"

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// MeHandler returns the caller's normalized identity. Works for both
// bearer and cookie callers; backend credentials are never included.
// Chained after RequireAuth, which resolves the identity.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			apiError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		writeJSON(w, http.StatusOK, session.ClientView{
			UserID:   identity.UserID,
			Email:    identity.Email,
			TenantID: identity.TenantID,
			Role:     identity.Role,
		})
	}
}

// RefreshHandler refreshes the session's access token. With ?force=true
// the freshness short-circuit is skipped, for callers that need a
// guaranteed-fresh token before a sensitive operation.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Read(r)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "not_authenticated", "no session")
			return
		}

		refreshFn := s.refresher.Refresh
		if r.URL.Query().Get("force") == "true" {
			refreshFn = s.refresher.ForceRefresh
		}

		updated, err := refreshFn(r.Context(), w, r, sess)
		if err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrNotAuthenticated):
				apiError(w, http.StatusUnauthorized, "not_authenticated", "no refresh token")
			case apperrors.Is(err, apperrors.ErrBackendUnavailable):
				apiError(w, http.StatusServiceUnavailable, "backend_unavailable", "token service temporarily unavailable")
			default:
				// Session already deleted by the coordinator (fail closed).
				apiError(w, http.StatusUnauthorized, "refresh_failed", "session could not be refreshed")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"session":   updated.ClientView(),
			"expiresAt": updated.ExpiresAt,
		})
	}
}

// LogoutHandler deletes the session cookie and revokes the refresh token at
// the backend, best effort.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, err := s.store.Read(r); err == nil && sess.RefreshToken != "" {
			if err := s.backend.RevokeTokens(r.Context(), sess.RefreshToken); err != nil {
				s.log.Debug().Err(err).Msg("best-effort token revocation failed")
			}
		}

		s.store.Delete(w)

		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, RouteLoginPage, http.StatusSeeOther)
	}
}

type tenantSwitchRequest struct {
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
}

// TenantSwitchHandler updates the session's tenant context in place.
func (s *Server) TenantSwitchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenantSwitchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantID == "" {
			apiError(w, http.StatusBadRequest, "invalid_request", "tenantId is required")
			return
		}

		updated, err := s.store.Update(w, r, session.Partial{
			TenantID: utils.Ptr(req.TenantID),
			Role:     utils.Ptr(req.Role),
		})
		if err != nil {
			apiError(w, http.StatusUnauthorized, "not_authenticated", "no session")
			return
		}

		writeJSON(w, http.StatusOK, updated.ClientView())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func apiError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
