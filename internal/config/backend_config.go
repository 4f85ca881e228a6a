package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// BackendConfig describes how to reach the CRM backend API, which is the
// sole issuer of first-party tokens. The internal API key authenticates
// server-to-server calls such as the OAuth exchange handoff.
type BackendConfig interface {
	GetBackendBaseURL() string
	GetInternalAPIKey() string
	GetBackendTimeout() time.Duration
}

const internalAPIKeyVar = "INTERNAL_API_KEY"

type Backend struct {
	apiKey string
}

var _ BackendConfig = Backend{}

func NewBackend(env string) (Backend, error) {
	key := os.Getenv(internalAPIKeyVar)
	if key == "" {
		if env != "DEV" {
			return Backend{}, fmt.Errorf("%s is required", internalAPIKeyVar)
		}
		log.Warn().Msg("no internal API key configured, backend exchange calls will be rejected")
	}
	return Backend{apiKey: key}, nil
}

func (Backend) GetBackendBaseURL() string {
	return GetEnv("BACKEND_URL", "http://localhost:4000")
}

func (b Backend) GetInternalAPIKey() string {
	return b.apiKey
}

// GetBackendTimeout bounds every call to the backend API. A timeout is
// surfaced as backend_unavailable, not as a rejection.
func (Backend) GetBackendTimeout() time.Duration {
	v := GetEnv("BACKEND_TIMEOUT", "10s")
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
