package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// SecurityConfig covers bearer token verification and request throttling.
// The bearer secret is shared with the backend token issuer so that both
// services can verify access tokens independently.
type SecurityConfig interface {
	GetBearerSecret() string
	GetRefreshBuffer() time.Duration
	GetEnableRateLimiting() bool
	GetAuthRateLimitPerMin() int
}

const tokenSecretVar = "TOKEN_SECRET"

type Security struct {
	bearerSecret string
}

var _ SecurityConfig = Security{}

func NewSecurity(env string) (Security, error) {
	secret := resolveSecret(tokenSecretVar, authSecretVar, runtimeSecretVar)

	if env == "DEV" {
		if len(secret) < minSecretLength {
			log.Warn().Msg("bearer secret missing or too short, using development fallback")
			secret = devFallbackSecret
		}
		return Security{bearerSecret: secret}, nil
	}

	if secret == "" {
		return Security{}, fmt.Errorf("no bearer secret configured: set %s", tokenSecretVar)
	}
	if len(secret) < minSecretLength {
		return Security{}, fmt.Errorf("%s must be at least %d characters", tokenSecretVar, minSecretLength)
	}
	return Security{bearerSecret: secret}, nil
}

func (s Security) GetBearerSecret() string {
	return s.bearerSecret
}

// GetRefreshBuffer is the window before access token expiry within which a
// refresh is triggered. Middleware and handlers must share this value: a
// mismatch causes premature or missed refreshes.
func (Security) GetRefreshBuffer() time.Duration {
	return 300 * time.Second
}

func (Security) GetEnableRateLimiting() bool {
	return EnvVars{}.GetRedisURL() != ""
}

func (Security) GetAuthRateLimitPerMin() int {
	v := GetEnv("AUTH_RATE_LIMIT_PER_MIN", "30")
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 30
	}
	return n
}
