package session

// Session is the single source-of-truth payload carried by the session
// cookie. It is opaque to the browser: the cookie value is a signed blob,
// and only the token-stripped ClientView is ever handed to UI code.
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	TenantID     string `json:"tenantId,omitempty"` // empty pre-onboarding
	Role         string `json:"role,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"` // unix seconds, access token expiry
	CreatedAt    int64  `json:"createdAt,omitempty"` // unix seconds, set once
}

// ClientView is the projection safe to expose to rendering code: identity
// and tenant context only, never the backend credentials.
type ClientView struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ClientView returns the token-stripped view of the session.
func (s *Session) ClientView() ClientView {
	return ClientView{
		UserID:   s.UserID,
		Email:    s.Email,
		TenantID: s.TenantID,
		Role:     s.Role,
	}
}

// HasValidTokenPair reports whether the token invariant holds: access and
// refresh tokens are set together or not at all.
func (s *Session) HasValidTokenPair() bool {
	return (s.AccessToken == "") == (s.RefreshToken == "")
}
