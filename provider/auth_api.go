package provider

import (
	"context"
	"net/http"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
)

// User is the provider's view of an authenticated identity.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	NewEmail string `json:"new_email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// TokenResponse is a session issued by the provider.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// OTPType is the kind of one-time token carried by a confirmation link.
type OTPType string

const (
	OTPSignup      OTPType = "signup"
	OTPMagicLink   OTPType = "magiclink"
	OTPRecovery    OTPType = "recovery"
	OTPInvite      OTPType = "invite"
	OTPEmailChange OTPType = "email_change"
	OTPEmail       OTPType = "email"
)

// AuthAPI talks to the provider's auth endpoints.
type AuthAPI struct {
	client
}

// NewAuthAPI creates an AuthAPI.
func NewAuthAPI(configs ConfigSource, httpClient *http.Client) *AuthAPI {
	return &AuthAPI{client: newClient(configs, httpClient)}
}

// RefreshSession exchanges a refresh token for a new session.
// A refresh token the provider rejects yields ErrRefreshRejected.
func (a *AuthAPI) RefreshSession(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	err := a.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token?grant_type=refresh_token",
		body:   map[string]string{"refresh_token": refreshToken},
	}, &out)
	if err != nil {
		return nil, classifyAuthError("[AuthAPI RefreshSession]", err, apperrors.ErrRefreshRejected)
	}
	return &out, nil
}

// GetUser validates accessToken with the provider and returns its user.
// An access token the provider rejects yields ErrInvalidToken.
func (a *AuthAPI) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	err := a.do(ctx, request{
		method:      http.MethodGet,
		path:        "/auth/v1/user",
		accessToken: accessToken,
	}, &out)
	if err != nil {
		return nil, classifyAuthError("[AuthAPI GetUser]", err, apperrors.ErrInvalidToken)
	}
	return &out, nil
}

// UpdateEmail starts an email change. The provider sends confirmation links to
// both addresses; the change completes when they are followed.
func (a *AuthAPI) UpdateEmail(ctx context.Context, accessToken, email string) (*User, error) {
	var out User
	err := a.do(ctx, request{
		method:      http.MethodPut,
		path:        "/auth/v1/user",
		accessToken: accessToken,
		body:        map[string]string{"email": email},
	}, &out)
	if err != nil {
		return nil, classifyAuthError("[AuthAPI UpdateEmail]", err, apperrors.ErrInvalidToken)
	}
	return &out, nil
}

// VerifyOTP redeems the token hash of a confirmation link.
func (a *AuthAPI) VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*TokenResponse, error) {
	var out TokenResponse
	err := a.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/verify",
		body:   map[string]string{"token_hash": tokenHash, "type": string(otpType)},
	}, &out)
	if err != nil {
		return nil, classifyAuthError("[AuthAPI VerifyOTP]", err, apperrors.ErrInvalidToken)
	}
	return &out, nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthAPI) SignOut(ctx context.Context, accessToken string) error {
	err := a.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/v1/logout",
		accessToken: accessToken,
	}, nil)
	if err != nil {
		return classifyAuthError("[AuthAPI SignOut]", err, apperrors.ErrInvalidToken)
	}
	return nil
}

// classifyAuthError maps 4xx credential rejections onto rejected so callers
// can tell "the provider said no" apart from transport failures.
func classifyAuthError(prefix string, err error, rejected error) error {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
			return apperrors.Wrapf(rejected, "%s %s", prefix, apiErr.Message)
		}
	}
	return apperrors.Wrapf(err, "%s", prefix)
}
