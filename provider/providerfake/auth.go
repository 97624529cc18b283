// Package providerfake holds in-memory stand-ins for the provider's auth API.
package providerfake

import (
	"context"
	"sync"
	"sync/atomic"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/provider"
)

// Auth is a fake auth API. Refresh tokens map to the session they mint,
// access tokens to their user, and token hashes to the session a
// confirmation link yields.
type Auth struct {
	mu            sync.Mutex
	Refreshes     map[string]*provider.TokenResponse
	Users         map[string]*provider.User
	OTPs          map[string]*provider.TokenResponse
	RefreshErr    error
	SignedOut     []string
	EmailRequests []string

	RefreshCalls atomic.Int32
}

func NewAuth() *Auth {
	return &Auth{
		Refreshes: map[string]*provider.TokenResponse{},
		Users:     map[string]*provider.User{},
		OTPs:      map[string]*provider.TokenResponse{},
	}
}

func (a *Auth) RefreshSession(_ context.Context, refreshToken string) (*provider.TokenResponse, error) {
	a.RefreshCalls.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.RefreshErr != nil {
		return nil, a.RefreshErr
	}
	resp, ok := a.Refreshes[refreshToken]
	if !ok {
		return nil, apperrors.ErrRefreshRejected
	}
	out := *resp
	return &out, nil
}

func (a *Auth) GetUser(_ context.Context, accessToken string) (*provider.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.Users[accessToken]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	out := *u
	return &out, nil
}

func (a *Auth) UpdateEmail(_ context.Context, accessToken, email string) (*provider.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.Users[accessToken]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	a.EmailRequests = append(a.EmailRequests, email)
	out := *u
	out.NewEmail = email
	return &out, nil
}

func (a *Auth) VerifyOTP(_ context.Context, tokenHash string, _ provider.OTPType) (*provider.TokenResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp, ok := a.OTPs[tokenHash]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	out := *resp
	return &out, nil
}

func (a *Auth) SignOut(_ context.Context, accessToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SignedOut = append(a.SignedOut, accessToken)
	return nil
}
