package session

import (
	"net/http"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/zcrmhq/auth-gateway/internal/config"
	apperrors "github.com/zcrmhq/auth-gateway/internal/errors"
	"github.com/zcrmhq/auth-gateway/token"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store manages the session cookie: an HS256-signed JWT carrying the
// session payload. HttpOnly, SameSite=Lax, path /, Secure outside
// development, seven day signing horizon.
type Store struct {
	config config.SessionConfig
	secure bool
}

// NewStore creates a session store. secure controls the cookie's Secure
// attribute and should be true in any deployed environment.
func NewStore(cfg config.SessionConfig, secure bool) *Store {
	return &Store{config: cfg, secure: secure}
}

// Partial holds the fields that Update may merge into an existing session.
// Nil fields are left untouched.
type Partial struct {
	TenantID     *string
	Role         *string
	AccessToken  *string
	RefreshToken *string
	ExpiresAt    *int64
}

// Create serializes, signs and stores the payload in the session cookie.
// CreatedAt is set once here if the caller did not.
func (s *Store) Create(w http.ResponseWriter, sess *Session) error {
	if !sess.HasValidTokenPair() {
		return apperrors.Wrapf(apperrors.ErrInvalidSession, "access and refresh tokens must be set together")
	}

	now := NowTimeFunc()
	if sess.CreatedAt == 0 {
		sess.CreatedAt = now.Unix()
	}

	value, err := s.sign(sess, now)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.cookie(value, int(s.config.GetSessionLifetime().Seconds())))
	return nil
}

// Read retrieves and verifies the session cookie. Returns ErrNoSession when
// the cookie is missing, expired at the signing layer, or tampered with.
func (s *Store) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(s.config.GetSessionCookieName())
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrNoSession
	}

	parsed, err := jwtlib.Parse(cookie.Value,
		func(t *jwtlib.Token) (any, error) { return []byte(s.config.GetSessionSecret()), nil },
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrapf(apperrors.ErrNoSession, "cookie verification failed")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNoSession, "unexpected claims type")
	}

	sess := sessionFromClaims(mapClaims)

	// Older cookies carried identity only inside the embedded access token.
	// Repair from its claims before rejecting the session.
	if sess.UserID == "" || sess.Email == "" {
		if claims, derr := token.DecodeUnverified(sess.AccessToken); derr == nil {
			if sess.UserID == "" {
				sess.UserID = claims.Sub
			}
			if sess.Email == "" {
				sess.Email = claims.Email
			}
		}
	}

	if sess.UserID == "" || sess.Email == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSession, "session missing identity")
	}

	return sess, nil
}

// Update merges the partial payload into the existing verified session and
// re-signs the cookie. Fails if there is no existing session.
func (s *Store) Update(w http.ResponseWriter, r *http.Request, partial Partial) (*Session, error) {
	sess, err := s.Read(r)
	if err != nil {
		return nil, err
	}

	if partial.TenantID != nil {
		sess.TenantID = *partial.TenantID
	}
	if partial.Role != nil {
		sess.Role = *partial.Role
	}
	if partial.AccessToken != nil {
		sess.AccessToken = *partial.AccessToken
	}
	if partial.RefreshToken != nil {
		sess.RefreshToken = *partial.RefreshToken
	}
	if partial.ExpiresAt != nil {
		sess.ExpiresAt = *partial.ExpiresAt
	}

	if !sess.HasValidTokenPair() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSession, "update would break the token pair invariant")
	}

	value, err := s.sign(sess, NowTimeFunc())
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, s.cookie(value, int(s.config.GetSessionLifetime().Seconds())))
	return sess, nil
}

// Delete clears the session cookie.
func (s *Store) Delete(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *Store) sign(sess *Session, now time.Time) (string, error) {
	claims := jwtlib.MapClaims{
		"iat":          now.Unix(),
		"exp":          now.Add(s.config.GetSessionLifetime()).Unix(),
		"userId":       sess.UserID,
		"email":        sess.Email,
		"tenantId":     sess.TenantID,
		"role":         sess.Role,
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"expiresAt":    sess.ExpiresAt,
		"createdAt":    sess.CreatedAt,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).
		SignedString([]byte(s.config.GetSessionSecret()))
	if err != nil {
		return "", apperrors.Wrapf(err, "[Store.sign] failed to sign session")
	}
	return signed, nil
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func sessionFromClaims(m jwtlib.MapClaims) *Session {
	userID, _ := m["userId"].(string)
	email, _ := m["email"].(string)
	tenantID, _ := m["tenantId"].(string)
	role, _ := m["role"].(string)
	accessToken, _ := m["accessToken"].(string)
	refreshToken, _ := m["refreshToken"].(string)
	expiresAt, _ := m["expiresAt"].(float64)
	createdAt, _ := m["createdAt"].(float64)

	return &Session{
		UserID:       userID,
		Email:        email,
		TenantID:     tenantID,
		Role:         role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    int64(expiresAt),
		CreatedAt:    int64(createdAt),
	}
}
