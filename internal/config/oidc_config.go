package config

// OidcConfig describes the third-party identity provider used for login.
// The gateway never verifies the provider's token signatures itself beyond
// the standard OIDC ID token check; the backend remains the sole issuer of
// first-party tokens.
type OidcConfig interface {
	GetOidcIssuer() string
	GetOidcClientID() string
	GetOidcClientSecret() string
	GetOidcRedirectURL() string
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

func (Oidc) GetOidcIssuer() string {
	return GetEnv("OIDC_ISSUER", "https://accounts.google.com")
}

func (Oidc) GetOidcClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Oidc) GetOidcClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Oidc) GetOidcRedirectURL() string {
	return EnvVars{}.GetBaseURL() + "/auth/callback"
}
