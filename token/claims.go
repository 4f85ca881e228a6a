package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the validated shape of a token payload. Malformed payloads are
// rejected at the boundary as ErrUndecodable rather than surfacing as
// missing fields later on.
type Claims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	TenantID string `json:"tenantId,omitempty"`
	Type     string `json:"type,omitempty"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat,omitempty"`
}

// ExpiresAt returns the expiry claim as a time.
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// DecodeUnverified extracts the claims from a JWT's payload segment without
// verifying the signature. Advisory use only (expiry checks, identity
// repair) - never the basis of an authorization decision.
func DecodeUnverified(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, apperrors.Wrapf(apperrors.ErrUndecodable, "expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUndecodable, "payload segment is not base64url")
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUndecodable, "payload is not a JSON claim set")
	}

	return &claims, nil
}
