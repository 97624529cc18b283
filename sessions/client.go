package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/internal/logging"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// AuthProvider is the subset of the provider's auth API the Client relies on.
type AuthProvider interface {
	RefreshSession(ctx context.Context, refreshToken string) (*provider.TokenResponse, error)
	GetUser(ctx context.Context, accessToken string) (*provider.User, error)
	UpdateEmail(ctx context.Context, accessToken, email string) (*provider.User, error)
	VerifyOTP(ctx context.Context, tokenHash string, otpType provider.OTPType) (*provider.TokenResponse, error)
	SignOut(ctx context.Context, accessToken string) error
}

var _ AuthProvider = (*provider.AuthAPI)(nil)

// Client owns the session lifecycle: reading it from cookies, refreshing it
// through the provider, writing it back and announcing transitions.
// Construct one at startup and share it; it holds no per-request state.
type Client struct {
	configs       provider.ConfigSource
	auth          AuthProvider
	cookieOptions CookieOptions
	chunkSize     int
	refreshMargin time.Duration
	nowTime       func() time.Time
	logger        zerolog.Logger
	refreshes     singleflight.Group
	observers     observers
}

type ClientOption func(*Client)

func WithCookieOptions(opts CookieOptions) ClientOption {
	return func(c *Client) {
		c.cookieOptions = opts
	}
}

func WithChunkSize(size int) ClientOption {
	return func(c *Client) {
		c.chunkSize = size
	}
}

// WithRefreshMargin sets how long before expiry a session is refreshed.
func WithRefreshMargin(margin time.Duration) ClientOption {
	return func(c *Client) {
		c.refreshMargin = margin
	}
}

func WithNowTime(nowTime func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowTime
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. Provider configuration is not fetched until the
// first call that needs it.
func NewClient(configs provider.ConfigSource, auth AuthProvider, opts ...ClientOption) (*Client, error) {
	if configs == nil {
		return nil, errors.New("[NewClient] config source is required")
	}
	if auth == nil {
		return nil, errors.New("[NewClient] auth provider is required")
	}

	c := &Client{
		configs:       configs,
		auth:          auth,
		cookieOptions: CookieOptions{Path: "/", SameSite: http.SameSiteLaxMode, Secure: true},
		chunkSize:     defaultChunkSize,
		refreshMargin: 30 * time.Second,
		nowTime:       time.Now,
		logger:        log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Subscribe(c.logEvent)
	return c, nil
}

// Subscribe registers obs for auth events and returns a function that removes it.
// Events are delivered in order, before the call that caused them returns.
func (c *Client) Subscribe(obs Observer) func() {
	return c.observers.subscribe(obs)
}

// CookieOptions returns the attributes used for every session cookie write.
func (c *Client) CookieOptions() CookieOptions {
	return c.cookieOptions
}

// CurrentSession returns the session held in jar, refreshing it when its access
// token is expired or about to expire. It returns nil without error when there
// is no session, and an error only when the provider configuration or the
// provider itself is unreachable.
func (c *Client) CurrentSession(ctx context.Context, jar Jar) (*Session, error) {
	codec, err := c.codec(ctx)
	if err != nil {
		return nil, err
	}

	cookies := jar.Cookies()
	current, err := codec.Decode(cookies)
	if err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable session cookie")
		jar.SetCookies(codec.Clear(cookies)...)
		return nil, nil
	}
	if current == nil {
		return nil, nil
	}
	if current.AccessToken == "" && current.RefreshToken == "" {
		jar.SetCookies(codec.Clear(cookies)...)
		return nil, nil
	}

	fresh, refreshed, err := ensureFresh(ctx, current, c.refreshMargin, c.refresh)
	switch {
	case errors.Is(err, errNoRefreshToken), errors.Is(err, apperrors.ErrRefreshRejected):
		if current.Usable(c.nowTime()) {
			return current, nil
		}
		c.logger.Info().Err(err).Str("session", logging.Fingerprint(current.RefreshToken)).Msg("session expired")
		jar.SetCookies(codec.Clear(cookies)...)
		c.emit(SignedOut, current)
		return nil, nil
	case err != nil:
		if current.Usable(c.nowTime()) {
			c.logger.Warn().Err(err).Msg("session refresh failed, using current token")
			return current, nil
		}
		return nil, fmt.Errorf("[Client CurrentSession] refreshing session: %w", err)
	}

	if refreshed {
		if fresh.User.ID == "" {
			fresh.User = current.User
		}
		if err := c.write(codec, jar, fresh); err != nil {
			return nil, err
		}
		c.emit(TokenRefreshed, fresh)
	}
	return fresh, nil
}

// CurrentUser validates the session's access token with the provider and
// returns its user, or nil when there is no valid session.
func (c *Client) CurrentUser(ctx context.Context, jar Jar) (*provider.User, error) {
	s, err := c.CurrentSession(ctx, jar)
	if err != nil || s == nil {
		return nil, err
	}
	user, err := c.auth.GetUser(ctx, s.AccessToken)
	if errors.Is(err, apperrors.ErrInvalidToken) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Client CurrentUser] %w", err)
	}
	return user, nil
}

// AccessToken returns a bearer credential for the session in jar, or
// ErrAuthRequired when there is no usable session.
func (c *Client) AccessToken(ctx context.Context, jar Jar) (string, error) {
	s, err := c.CurrentSession(ctx, jar)
	if err != nil {
		return "", err
	}
	if !s.Usable(c.nowTime()) {
		return "", apperrors.ErrAuthRequired
	}
	return s.AccessToken, nil
}

// SetSession stores s in jar and announces a sign-in.
func (c *Client) SetSession(ctx context.Context, jar Jar, s *Session) error {
	if s == nil || s.AccessToken == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "[Client SetSession] session has no access token")
	}
	codec, err := c.codec(ctx)
	if err != nil {
		return err
	}
	if err := c.write(codec, jar, s); err != nil {
		return err
	}
	c.emit(SignedIn, s)
	return nil
}

// VerifyOTP redeems a confirmation link's token hash. When the provider issues
// a session it is stored in jar. Email-change confirmations announce a user
// update, every other kind a sign-in.
func (c *Client) VerifyOTP(ctx context.Context, jar Jar, tokenHash string, otpType provider.OTPType) (*Session, error) {
	if tokenHash == "" {
		return nil, apperrors.Wrapf(apperrors.ErrValidation, "[Client VerifyOTP] token hash is required")
	}
	codec, err := c.codec(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.auth.VerifyOTP(ctx, tokenHash, otpType)
	if err != nil {
		return nil, fmt.Errorf("[Client VerifyOTP] %w", err)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}

	s := fromTokenResponse(resp)
	if err := c.write(codec, jar, s); err != nil {
		return nil, err
	}
	if otpType == provider.OTPEmailChange {
		c.emit(UserUpdated, s)
	} else {
		c.emit(SignedIn, s)
	}
	return s, nil
}

// RequestEmailChange asks the provider to change the session user's email.
// The change completes when the confirmation links are followed.
func (c *Client) RequestEmailChange(ctx context.Context, jar Jar, email string) (*provider.User, error) {
	s, err := c.CurrentSession(ctx, jar)
	if err != nil {
		return nil, err
	}
	if !s.Usable(c.nowTime()) {
		return nil, apperrors.ErrAuthRequired
	}

	user, err := c.auth.UpdateEmail(ctx, s.AccessToken, email)
	if errors.Is(err, apperrors.ErrInvalidToken) {
		return nil, apperrors.Wrapf(apperrors.ErrAuthRequired, "[Client RequestEmailChange] %v", err)
	}
	if err != nil {
		return nil, fmt.Errorf("[Client RequestEmailChange] %w", err)
	}
	c.emit(UserUpdated, s)
	return user, nil
}

// SignOut revokes the session with the provider and clears it from jar. The
// local sign-out happens even when the provider call fails.
func (c *Client) SignOut(ctx context.Context, jar Jar) error {
	codec, err := c.codec(ctx)
	if err != nil {
		return err
	}

	cookies := jar.Cookies()
	current, _ := codec.Decode(cookies)
	if current != nil && current.AccessToken != "" {
		if err := c.auth.SignOut(ctx, current.AccessToken); err != nil {
			c.logger.Warn().Err(err).Msg("provider sign-out failed")
		}
	}
	jar.SetCookies(codec.Clear(cookies)...)
	if current != nil {
		c.emit(SignedOut, current)
	}
	return nil
}

func (c *Client) codec(ctx context.Context) (CookieCodec, error) {
	cfg, err := c.configs.Load(ctx)
	if err != nil {
		return CookieCodec{}, err
	}
	return NewCookieCodec(CookieName(cfg.ProjectRef()), c.cookieOptions, c.chunkSize), nil
}

func (c *Client) write(codec CookieCodec, jar Jar, s *Session) error {
	cookies, err := codec.Encode(s, jar.Cookies())
	if err != nil {
		return err
	}
	jar.SetCookies(cookies...)
	return nil
}

const refreshTimeout = 15 * time.Second

// refresh exchanges a refresh token, coalescing concurrent refreshes of the
// same token since the provider accepts each refresh token once.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	v, err, _ := c.refreshes.Do(refreshToken, func() (any, error) {
		// Detached so the first caller's cancellation does not fail the callers sharing it.
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		resp, err := c.auth.RefreshSession(refreshCtx, refreshToken)
		if err != nil {
			return nil, err
		}
		return fromTokenResponse(resp), nil
	})
	if err != nil {
		return nil, err
	}
	s := *v.(*Session)
	return &s, nil
}

func (c *Client) emit(t EventType, s *Session) {
	e := Event{Type: t, Session: s, At: c.nowTime()}
	if s != nil {
		e.UserID = s.UserID()
	}
	c.observers.emit(e)
}

func (c *Client) logEvent(e Event) {
	c.logger.Info().Str("event", string(e.Type)).Str("user_id", e.UserID).Msg("auth state changed")
}
