package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"golang.org/x/oauth2"
)

// User is the identity a session belongs to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is the credential bundle persisted in the session cookies.
// A session without an access token, or whose access token has expired, is unauthenticated.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}

// Expiry returns when the access token expires. It prefers expires_at and falls
// back to the token's exp claim. The zero time means unknown.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if c, ok := parseClaims(s.AccessToken); ok {
		return c.Expiry
	}
	return time.Time{}
}

// UserID returns the session's user id, falling back to the token's sub claim.
func (s *Session) UserID() string {
	if s.User.ID != "" {
		return s.User.ID
	}
	if c, ok := parseClaims(s.AccessToken); ok {
		return c.Subject
	}
	return ""
}

// Usable reports whether the access token can be presented at now.
func (s *Session) Usable(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	exp := s.Expiry()
	return exp.IsZero() || now.Before(exp)
}

// Token returns the session as an oauth2 token.
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

func fromTokenResponse(t *provider.TokenResponse) *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		ExpiresAt:    t.ExpiresAt,
		RefreshToken: t.RefreshToken,
		User:         User{ID: t.User.ID, Email: t.User.Email},
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if c, ok := parseClaims(s.AccessToken); ok {
		if s.User.ID == "" {
			s.User.ID = c.Subject
		}
		if s.User.Email == "" {
			s.User.Email = c.Email
		}
	}
	return s
}

type tokenClaims struct {
	Subject string
	Email   string
	Role    string
	Expiry  time.Time
}

// parseClaims reads the claims of a provider access token without verifying
// its signature. The provider verifies tokens on every call; the claims here
// only fill gaps in cookie data.
func parseClaims(raw string) (tokenClaims, bool) {
	if raw == "" {
		return tokenClaims{}, false
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, false
	}

	var c tokenClaims
	c.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.Expiry = exp.Time
	}
	c.Email, _ = claims["email"].(string)
	c.Role, _ = claims["role"].(string)
	return c, true
}
