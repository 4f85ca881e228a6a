package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
)

// TokenTypeAccess is the type claim expected on bearer access tokens. A
// refresh token must never authenticate a request.
const TokenTypeAccess = "access"

// Verifier cryptographically verifies bearer tokens against the HS256
// secret shared with the backend token issuer. This is distinct from
// DecodeUnverified: bearer tokens are meant to be verified independently
// by every service that receives them.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks signature and expiry and returns the token's claims.
// Tokens with a non-access type claim or missing identity claims are
// rejected even when the signature is valid.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	parsed, err := jwtlib.Parse(raw,
		func(t *jwtlib.Token) (any, error) { return v.secret, nil },
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "unexpected claims type")
	}

	claims := claimsFromMap(mapClaims)
	if claims.Type != "" && claims.Type != TokenTypeAccess {
		return nil, apperrors.Wrapf(apperrors.ErrWrongTokenType, "type %q", claims.Type)
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, apperrors.ErrMissingIdentity
	}

	return claims, nil
}

func claimsFromMap(m jwtlib.MapClaims) *Claims {
	sub, _ := m["sub"].(string)
	email, _ := m["email"].(string)
	tenantID, _ := m["tenantId"].(string)
	typ, _ := m["type"].(string)
	exp, _ := m["exp"].(float64)
	iat, _ := m["iat"].(float64)

	return &Claims{
		Sub:      sub,
		Email:    email,
		TenantID: tenantID,
		Type:     typ,
		Exp:      int64(exp),
		Iat:      int64(iat),
	}
}
