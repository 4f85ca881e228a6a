package token_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/token"
)

// rawToken builds a structurally valid JWT whose signature is garbage. The
// codec never checks the signature, only the payload segment.
func rawToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString(payload) + ".not-a-signature"
}

func TestDecodeUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	raw := rawToken(t, map[string]any{
		"sub":      "user-1",
		"email":    "john.doe@example.com",
		"tenantId": "tenant-1",
		"type":     "access",
		"exp":      exp,
	})

	claims, err := token.DecodeUnverified(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Sub)
	require.Equal(t, "john.doe@example.com", claims.Email)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.Equal(t, "access", claims.Type)
	require.Equal(t, exp, claims.Exp)
	require.Equal(t, time.Unix(exp, 0), claims.ExpiresAt())
}

func TestDecodeUnverifiedMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no dots", "nodotsinthisstring"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "header.!!!not-base64!!!.sig"},
		{"payload not json", "header." + base64.RawURLEncoding.EncodeToString([]byte("plain text")) + ".sig"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := token.DecodeUnverified(tc.raw)
			require.ErrorIs(t, err, apperrors.ErrUndecodable)
		})
	}
}

func TestDecodeUnverifiedPaddedPayload(t *testing.T) {
	payload, err := json.Marshal(map[string]any{"sub": "user-1", "exp": 42})
	require.NoError(t, err)

	// Some encoders pad the payload segment.
	raw := "header." + base64.URLEncoding.EncodeToString(payload) + ".sig"

	claims, err := token.DecodeUnverified(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Sub)
	require.Equal(t, int64(42), claims.Exp)
}
