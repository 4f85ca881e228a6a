package config

// Config aggregates every configuration concern of the gateway. Secrets are
// resolved exactly once in New and injected into consumers from there;
// nothing else in the codebase reads secret environment variables directly.
type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	SecurityConfig
	BackendConfig
	OidcConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetRedisURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Security
	Backend
	Oidc
}

// New loads and validates the full configuration. In a production
// environment a missing or weak secret is a startup error, never a
// silent fallback.
func New() (Config, error) {
	env := EnvVars{}.GetEnv()

	session, err := NewSession(env)
	if err != nil {
		return nil, err
	}

	security, err := NewSecurity(env)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackend(env)
	if err != nil {
		return nil, err
	}

	return mainConfig{
		Session:  session,
		Security: security,
		Backend:  backend,
	}, nil
}
