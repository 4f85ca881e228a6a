package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zcrmhq/auth-gateway/backend"
	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
)

type testBackendConfig struct {
	baseURL string
}

func (c testBackendConfig) GetBackendBaseURL() string        { return c.baseURL }
func (c testBackendConfig) GetInternalAPIKey() string        { return "internal-key-1" }
func (c testBackendConfig) GetBackendTimeout() time.Duration { return 2 * time.Second }

func newClient(srv *httptest.Server) *backend.Client {
	return backend.NewClient(testBackendConfig{baseURL: srv.URL})
}

func TestRefreshTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/refresh", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-token-1", body["refreshToken"])

		// The refresh endpoint is not internally keyed.
		require.Empty(t, r.Header.Get("X-Internal-API-Key"))

		json.NewEncoder(w).Encode(backend.TokenPair{
			AccessToken:  "access-token-2",
			RefreshToken: "refresh-token-2",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	pair, err := newClient(srv).RefreshTokens(context.Background(), "refresh-token-1")
	require.NoError(t, err)
	require.Equal(t, "access-token-2", pair.AccessToken)
	require.Equal(t, "refresh-token-2", pair.RefreshToken)
	require.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestRefreshTokensRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv).RefreshTokens(context.Background(), "revoked-token")
	require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
}

func TestRefreshTokensBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv).RefreshTokens(context.Background(), "refresh-token-1")
	require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestRefreshTokensUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newClient(srv)
	srv.Close()

	_, err := client.RefreshTokens(context.Background(), "refresh-token-1")
	require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestRefreshTokensEmptyPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	_, err := newClient(srv).RefreshTokens(context.Background(), "refresh-token-1")
	require.ErrorIs(t, err, apperrors.ErrNoTokens)
}

func TestExchangeOAuthUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/oauth/exchange", r.URL.Path)
		require.Equal(t, "internal-key-1", r.Header.Get("X-Internal-API-Key"))

		var req backend.ExchangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "google-sub-1", req.UserID)
		require.Equal(t, "google", req.Provider)

		json.NewEncoder(w).Encode(backend.ExchangeResponse{
			User:    &backend.User{ID: "user-1", Email: "john.doe@example.com"},
			Tenants: []backend.Tenant{{ID: "tenant-1", Role: "admin"}},
			Tokens: &backend.TokenPair{
				AccessToken:  "access-token-1",
				RefreshToken: "refresh-token-1",
				ExpiresIn:    3600,
			},
		})
	}))
	defer srv.Close()

	resp, err := newClient(srv).ExchangeOAuthUser(context.Background(), backend.ExchangeRequest{
		UserID:   "google-sub-1",
		Email:    "john.doe@example.com",
		Provider: "google",
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", resp.User.ID)
	require.Len(t, resp.Tenants, 1)
	require.Equal(t, "access-token-1", resp.Tokens.AccessToken)
}

func TestExchangeOAuthUserRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newClient(srv).ExchangeOAuthUser(context.Background(), backend.ExchangeRequest{UserID: "u"})
	require.ErrorIs(t, err, apperrors.ErrExchangeRejected)
}

func TestRevokeTokens(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, "/api/v1/auth/revoke", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newClient(srv).RevokeTokens(context.Background(), "refresh-token-1"))
	require.True(t, called)
}
