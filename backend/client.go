package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zcrmhq/auth-gateway/internal/config"
	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
)

const (
	refreshPath  = "/api/v1/auth/refresh"
	exchangePath = "/api/v1/auth/oauth/exchange"
	revokePath   = "/api/v1/auth/revoke"

	internalAPIKeyHeader = "X-Internal-API-Key"
)

// Client calls the CRM backend API, the sole issuer of first-party tokens.
// Every call is bounded by the configured timeout and honors the inbound
// request's context, so an aborted request abandons in-flight calls.
// Transport failures, timeouts and 5xx responses are ErrBackendUnavailable;
// an explicit 4xx rejection maps to the endpoint's rejection error.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetBackendBaseURL(), "/"),
		apiKey:     cfg.GetInternalAPIKey(),
		httpClient: &http.Client{Timeout: cfg.GetBackendTimeout()},
	}
}

// TokenPair is the token material returned by the backend token endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// User is the backend's view of the authenticated user.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Tenant is a tenant membership including the caller's role within it.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Onboarding describes how far the tenant has progressed through setup.
type Onboarding struct {
	Completed bool   `json:"completed"`
	Status    string `json:"status,omitempty"`
}

// ExchangeRequest carries the already-verified identity provider result to
// the backend. The call itself is authenticated with the internal API key,
// never with material derived from the provider response.
type ExchangeRequest struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// ExchangeResponse is the backend's answer to an OAuth exchange. Tokens may
// be nil; the caller treats that as a contract violation (no_tokens).
type ExchangeResponse struct {
	User       *User       `json:"user,omitempty"`
	Tenants    []Tenant    `json:"tenants"`
	Onboarding *Onboarding `json:"onboarding,omitempty"`
	Tokens     *TokenPair  `json:"tokens,omitempty"`
}

// RefreshTokens exchanges a refresh token for a new token pair.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	status, err := c.post(ctx, refreshPath, map[string]string{"refreshToken": refreshToken}, &pair, false)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apperrors.Wrapf(apperrors.ErrRefreshRejected, "backend returned %d", status)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		// 2xx without tokens is a backend/frontend contract mismatch, not a
		// soft failure.
		return nil, apperrors.ErrNoTokens
	}
	return &pair, nil
}

// ExchangeOAuthUser hands a verified identity provider result to the
// backend and receives the first-party user, tenants and tokens.
func (c *Client) ExchangeOAuthUser(ctx context.Context, req ExchangeRequest) (*ExchangeResponse, error) {
	var resp ExchangeResponse
	status, err := c.post(ctx, exchangePath, req, &resp, true)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeRejected, "backend returned %d", status)
	}
	return &resp, nil
}

// RevokeTokens asks the backend to revoke a refresh token. Best effort:
// logout proceeds locally regardless of the outcome.
func (c *Client) RevokeTokens(ctx context.Context, refreshToken string) error {
	status, err := c.post(ctx, revokePath, map[string]string{"refreshToken": refreshToken}, nil, false)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apperrors.Wrapf(apperrors.ErrRefreshRejected, "backend returned %d", status)
	}
	return nil
}

// post issues a JSON POST and decodes a 2xx body into out when out is
// non-nil. Returns the status code for the caller to map 4xx responses;
// transport errors and 5xx are already mapped to ErrBackendUnavailable.
func (c *Client) post(ctx context.Context, path string, body any, out any, withKey bool) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, apperrors.Wrapf(err, "[Client.post] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, apperrors.Wrapf(err, "[Client.post] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set(internalAPIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("backend call failed")
		return 0, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("backend returned server error")
		return resp.StatusCode, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "backend returned %d", resp.StatusCode)
	}

	if resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "decode response: %v", err)
		}
	}

	return resp.StatusCode, nil
}
