package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/zcrmhq/auth-gateway/internal/config"
)

// IdentityResult is the verified outcome of an identity provider code
// exchange.
type IdentityResult struct {
	Sub       string
	Email     string
	Name      string
	AvatarURL string
	Provider  string
}

// IdentityProvider converts a provider authorization code into a verified
// identity. The gateway forwards only this verified result to the backend;
// raw provider tokens never leave this boundary.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (*IdentityResult, error)
}

// oidcProvider implements IdentityProvider on top of the configured OIDC
// issuer. Discovery runs once on first use.
type oidcProvider struct {
	config config.OidcConfig

	mu       sync.Mutex
	provider *oidc.Provider
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func newOidcProvider(cfg config.OidcConfig) *oidcProvider {
	return &oidcProvider{config: cfg}
}

func (p *oidcProvider) init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.provider != nil {
		return nil
	}

	provider, err := oidc.NewProvider(ctx, p.config.GetOidcIssuer())
	if err != nil {
		return fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	p.provider = provider
	p.oauth = &oauth2.Config{
		ClientID:     p.config.GetOidcClientID(),
		ClientSecret: p.config.GetOidcClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  p.config.GetOidcRedirectURL(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	p.verifier = provider.Verifier(&oidc.Config{
		ClientID: p.config.GetOidcClientID(),
	})
	return nil
}

func (p *oidcProvider) ExchangeCode(ctx context.Context, code string) (*IdentityResult, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}

	// Exchange authorization code for tokens using standard oauth2 library
	oauth2Token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no ID token in provider response")
	}

	// Verify the ID token signature and claims
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("ID token verification failed: %w", err)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}

	return &IdentityResult{
		Sub:       claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
		Provider:  p.config.GetOidcIssuer(),
	}, nil
}
