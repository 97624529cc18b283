package account

import (
	"context"
	"errors"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/jrsteele09/go-seller-dashboard/sellerapi"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
)

// CredentialSource yields the bearer credential for the session in a jar, or
// ErrAuthRequired when there is none.
type CredentialSource interface {
	AccessToken(ctx context.Context, jar sessions.Jar) (string, error)
}

// EmailChanger starts the provider's email confirmation flow.
type EmailChanger interface {
	RequestEmailChange(ctx context.Context, jar sessions.Jar, email string) (*provider.User, error)
}

// API is the business API surface the loader needs.
type API interface {
	Get(ctx context.Context, accessToken, path string, out any) error
	Put(ctx context.Context, accessToken, path string, body, out any) error
}

var (
	_ CredentialSource = (*sessions.Client)(nil)
	_ EmailChanger     = (*sessions.Client)(nil)
	_ API              = (*sellerapi.Client)(nil)
)

// Loader fetches and updates account details on behalf of the session in a
// jar. ErrAuthRequired means the browser must sign in again; any other error
// is a recoverable failure to show with a retry.
type Loader struct {
	creds     CredentialSource
	emails    EmailChanger
	api       API
	sanitizer *Sanitizer
}

func NewLoader(creds CredentialSource, emails EmailChanger, api API) (*Loader, error) {
	if creds == nil {
		return nil, errors.New("[NewLoader] credential source is required")
	}
	if api == nil {
		return nil, errors.New("[NewLoader] business api is required")
	}
	return &Loader{creds: creds, emails: emails, api: api, sanitizer: NewSanitizer()}, nil
}

// Fetch returns the seller's account details. No API call is made without a usable credential.
func (l *Loader) Fetch(ctx context.Context, jar sessions.Jar) (*Details, error) {
	token, err := l.creds.AccessToken(ctx, jar)
	if err != nil {
		return nil, err
	}
	return l.fetch(ctx, token)
}

// Update validates u, writes only its present fields, then re-fetches the
// details so the caller renders the stored values. Invalid input is returned
// as ValidationErrors and never sent.
func (l *Loader) Update(ctx context.Context, jar sessions.Jar, u Update) (*Details, error) {
	if err := l.sanitizer.Validate(&u); err != nil {
		return nil, err
	}
	u = u.normalized()
	if u.IsEmpty() {
		return l.Fetch(ctx, jar)
	}

	token, err := l.creds.AccessToken(ctx, jar)
	if err != nil {
		return nil, err
	}
	if err := l.api.Put(ctx, token, sellerapi.PathAccountDetails, u, nil); err != nil {
		return nil, sellerapi.AuthRequired(err)
	}
	return l.fetch(ctx, token)
}

// RequestEmailChange validates newEmail against the current address and asks
// the provider to send confirmation links.
func (l *Loader) RequestEmailChange(ctx context.Context, jar sessions.Jar, currentEmail, newEmail string) error {
	email, err := ValidateEmailChange(currentEmail, newEmail)
	if err != nil {
		return err
	}
	if l.emails == nil {
		return apperrors.ErrUnsupported
	}
	_, err = l.emails.RequestEmailChange(ctx, jar, email)
	return err
}

func (l *Loader) fetch(ctx context.Context, token string) (*Details, error) {
	var d Details
	if err := l.api.Get(ctx, token, sellerapi.PathAccountDetails, &d); err != nil {
		return nil, sellerapi.AuthRequired(err)
	}
	return &d, nil
}
