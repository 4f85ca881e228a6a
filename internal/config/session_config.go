package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionConfig carries the session cookie parameters and the signing
// secret. The secret is resolved once at startup, in order: SESSION_SECRET,
// AUTH_SECRET, the platform runtime binding, then a development-only
// fallback constant. A production runtime never starts on the fallback.
type SessionConfig interface {
	GetSessionSecret() string
	GetSessionCookieName() string
	GetSessionLifetime() time.Duration
}

const (
	sessionSecretVar = "SESSION_SECRET"
	authSecretVar    = "AUTH_SECRET"
	runtimeSecretVar = "ZCRM_RUNTIME_SECRET"

	devFallbackSecret = "zcrm-dev-only-session-secret-do-not-deploy"

	// HS256 with anything shorter is trivially brute-forceable.
	minSecretLength = 32
)

type Session struct {
	secret string
}

var _ SessionConfig = Session{}

func NewSession(env string) (Session, error) {
	secret := resolveSecret(sessionSecretVar, authSecretVar, runtimeSecretVar)

	if env == "DEV" {
		if len(secret) < minSecretLength {
			log.Warn().Msg("session secret missing or too short, using development fallback")
			secret = devFallbackSecret
		}
		return Session{secret: secret}, nil
	}

	if secret == "" {
		return Session{}, fmt.Errorf("no session secret configured: set %s", sessionSecretVar)
	}
	if len(secret) < minSecretLength {
		return Session{}, fmt.Errorf("%s must be at least %d characters", sessionSecretVar, minSecretLength)
	}
	return Session{secret: secret}, nil
}

func (s Session) GetSessionSecret() string {
	return s.secret
}

func (Session) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "zcrm_session")
}

func (Session) GetSessionLifetime() time.Duration {
	return 7 * 24 * time.Hour
}

// resolveSecret returns the first non-empty value among the given
// environment variables.
func resolveSecret(vars ...string) string {
	for _, v := range vars {
		if value := os.Getenv(v); value != "" {
			return value
		}
	}
	return ""
}
