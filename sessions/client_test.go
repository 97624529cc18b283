package sessions_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/jrsteele09/go-seller-dashboard/provider/providerfake"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/stretchr/testify/require"
)

const cookieName = "sb-abcd-auth-token"

type testFixture struct {
	auth   *providerfake.Auth
	client *sessions.Client
	events []sessions.Event
}

func setupTestFixture(t *testing.T, configs provider.ConfigSource) *testFixture {
	t.Helper()
	if configs == nil {
		configs = provider.StaticConfig{URL: "https://abcd.supabase.co", AnonKey: "anon"}
	}
	f := &testFixture{auth: providerfake.NewAuth()}

	client, err := sessions.NewClient(configs, f.auth, sessions.WithCookieOptions(testCookieOptions))
	require.NoError(t, err)
	client.Subscribe(func(e sessions.Event) {
		f.events = append(f.events, e)
	})
	f.client = client
	return f
}

func (f *testFixture) eventTypes() []sessions.EventType {
	var out []sessions.EventType
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":   sub,
		"exp":   exp.Unix(),
		"email": sub + "@example.com",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func jarWith(t *testing.T, s *sessions.Session) *sessions.MemoryJar {
	t.Helper()
	codec := sessions.NewCookieCodec(cookieName, testCookieOptions, 3180)
	cookies, err := codec.Encode(s, nil)
	require.NoError(t, err)
	return sessions.NewMemoryJar(cookies...)
}

type failingConfig struct{}

func (failingConfig) Load(context.Context) (provider.Config, error) {
	return provider.Config{}, apperrors.Wrapf(apperrors.ErrConfigUnavailable, "dial tcp: connection refused")
}

func TestNewClientValidation(t *testing.T) {
	_, err := sessions.NewClient(nil, providerfake.NewAuth())
	require.Error(t, err)

	_, err = sessions.NewClient(provider.StaticConfig{}, nil)
	require.Error(t, err)
}

func TestCurrentSessionWithoutCookies(t *testing.T) {
	f := setupTestFixture(t, nil)

	s, err := f.client.CurrentSession(context.Background(), sessions.NewMemoryJar())
	require.NoError(t, err)
	require.Nil(t, s)
	require.Empty(t, f.events)
}

func TestCurrentSessionReturnsValidSessionWithoutRefresh(t *testing.T) {
	f := setupTestFixture(t, nil)
	exp := time.Now().Add(time.Hour)
	jar := jarWith(t, &sessions.Session{
		AccessToken:  signedToken(t, "u1", exp),
		ExpiresAt:    exp.Unix(),
		RefreshToken: "r1",
		User:         sessions.User{ID: "u1"},
	})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "u1", s.UserID())
	require.Zero(t, f.auth.RefreshCalls.Load())
	require.Empty(t, jar.Writes())
}

func TestCurrentSessionRefreshesExpiredSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	newExp := time.Now().Add(time.Hour)
	f.auth.Refreshes["r1"] = &provider.TokenResponse{
		AccessToken:  signedToken(t, "u1", newExp),
		ExpiresAt:    newExp.Unix(),
		RefreshToken: "r2",
		User:         provider.User{ID: "u1", Email: "u1@example.com"},
	}
	oldExp := time.Now().Add(-time.Minute)
	jar := jarWith(t, &sessions.Session{
		AccessToken:  signedToken(t, "u1", oldExp),
		ExpiresAt:    oldExp.Unix(),
		RefreshToken: "r1",
		User:         sessions.User{ID: "u1"},
	})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "r2", s.RefreshToken)
	require.Equal(t, []sessions.EventType{sessions.TokenRefreshed}, f.eventTypes())

	stored, err := sessions.NewCookieCodec(cookieName, testCookieOptions, 3180).Decode(jar.Cookies())
	require.NoError(t, err)
	require.Equal(t, "r2", stored.RefreshToken)
}

type contextCheckingAuth struct {
	*providerfake.Auth
}

func (a contextCheckingAuth) RefreshSession(ctx context.Context, refreshToken string) (*provider.TokenResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("refresh without deadline")
	}
	return a.Auth.RefreshSession(ctx, refreshToken)
}

func TestCurrentSessionRefreshOutlivesCancelledRequest(t *testing.T) {
	fake := providerfake.NewAuth()
	newExp := time.Now().Add(time.Hour)
	fake.Refreshes["r1"] = &provider.TokenResponse{
		AccessToken:  signedToken(t, "u1", newExp),
		ExpiresAt:    newExp.Unix(),
		RefreshToken: "r2",
		User:         provider.User{ID: "u1", Email: "u1@example.com"},
	}
	client, err := sessions.NewClient(provider.StaticConfig{URL: "https://abcd.supabase.co", AnonKey: "anon"},
		contextCheckingAuth{Auth: fake}, sessions.WithCookieOptions(testCookieOptions))
	require.NoError(t, err)

	oldExp := time.Now().Add(-time.Minute)
	jar := jarWith(t, &sessions.Session{
		AccessToken:  signedToken(t, "u1", oldExp),
		ExpiresAt:    oldExp.Unix(),
		RefreshToken: "r1",
		User:         sessions.User{ID: "u1"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := client.CurrentSession(ctx, jar)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "r2", s.RefreshToken)
	require.EqualValues(t, 1, fake.RefreshCalls.Load())
}

func TestCurrentSessionRefreshesWithinMargin(t *testing.T) {
	f := setupTestFixture(t, nil)
	newExp := time.Now().Add(time.Hour)
	f.auth.Refreshes["r1"] = &provider.TokenResponse{AccessToken: "fresh", ExpiresAt: newExp.Unix(), RefreshToken: "r2"}
	soon := time.Now().Add(5 * time.Second)
	jar := jarWith(t, &sessions.Session{AccessToken: "stale-soon", ExpiresAt: soon.Unix(), RefreshToken: "r1", User: sessions.User{ID: "u1"}})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.Equal(t, "fresh", s.AccessToken)
	require.Equal(t, "u1", s.UserID())
}

func TestCurrentSessionRejectedRefreshClearsSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	oldExp := time.Now().Add(-time.Minute)
	jar := jarWith(t, &sessions.Session{AccessToken: "old", ExpiresAt: oldExp.Unix(), RefreshToken: "revoked", User: sessions.User{ID: "u1"}})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Empty(t, jar.Cookies())
	require.Equal(t, []sessions.EventType{sessions.SignedOut}, f.eventTypes())
	require.Equal(t, "u1", f.events[0].UserID)
}

func TestCurrentSessionExpiredWithoutRefreshToken(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := jarWith(t, &sessions.Session{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Hour).Unix()})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Zero(t, f.auth.RefreshCalls.Load())
	require.Empty(t, jar.Cookies())
}

func TestCurrentSessionTransportFailureOnExpiredSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.auth.RefreshErr = errors.New("connection reset")
	jar := jarWith(t, &sessions.Session{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Hour).Unix(), RefreshToken: "r1"})

	_, err := f.client.CurrentSession(context.Background(), jar)
	require.Error(t, err)
	require.NotEmpty(t, jar.Cookies())
}

func TestCurrentSessionUnreadableCookieIsNoSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := sessions.NewMemoryJar(&http.Cookie{Name: cookieName, Value: "base64-%%%"})

	s, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Empty(t, jar.Cookies())
}

func TestCurrentSessionConfigFailure(t *testing.T) {
	f := setupTestFixture(t, failingConfig{})

	_, err := f.client.CurrentSession(context.Background(), sessions.NewMemoryJar())
	require.ErrorIs(t, err, apperrors.ErrConfigUnavailable)
}

func TestAccessToken(t *testing.T) {
	f := setupTestFixture(t, nil)

	_, err := f.client.AccessToken(context.Background(), sessions.NewMemoryJar())
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)

	exp := time.Now().Add(time.Hour)
	token, err := f.client.AccessToken(context.Background(), jarWith(t, &sessions.Session{AccessToken: "valid", ExpiresAt: exp.Unix()}))
	require.NoError(t, err)
	require.Equal(t, "valid", token)
}

func TestAccessTokenFallsBackToJWTExpiry(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := jarWith(t, &sessions.Session{AccessToken: signedToken(t, "u1", time.Now().Add(-time.Hour))})

	_, err := f.client.AccessToken(context.Background(), jar)
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestCurrentUser(t *testing.T) {
	f := setupTestFixture(t, nil)
	exp := time.Now().Add(time.Hour)
	f.auth.Users["good"] = &provider.User{ID: "u1", Email: "u1@example.com"}

	u, err := f.client.CurrentUser(context.Background(), jarWith(t, &sessions.Session{AccessToken: "good", ExpiresAt: exp.Unix()}))
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)

	u, err = f.client.CurrentUser(context.Background(), jarWith(t, &sessions.Session{AccessToken: "revoked", ExpiresAt: exp.Unix()}))
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestSetSessionEmitsSignedIn(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := sessions.NewMemoryJar()
	s := &sessions.Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour).Unix(), User: sessions.User{ID: "u1"}}

	require.NoError(t, f.client.SetSession(context.Background(), jar, s))
	require.Equal(t, []sessions.EventType{sessions.SignedIn}, f.eventTypes())

	got, err := f.client.CurrentSession(context.Background(), jar)
	require.NoError(t, err)
	require.Equal(t, "a", got.AccessToken)

	require.ErrorIs(t, f.client.SetSession(context.Background(), jar, &sessions.Session{}), apperrors.ErrValidation)
}

func TestVerifyOTP(t *testing.T) {
	f := setupTestFixture(t, nil)
	exp := time.Now().Add(time.Hour)
	f.auth.OTPs["magic"] = &provider.TokenResponse{AccessToken: "a1", ExpiresAt: exp.Unix(), RefreshToken: "r1", User: provider.User{ID: "u1"}}
	f.auth.OTPs["change"] = &provider.TokenResponse{AccessToken: "a2", ExpiresAt: exp.Unix(), RefreshToken: "r2", User: provider.User{ID: "u1"}}
	jar := sessions.NewMemoryJar()

	s, err := f.client.VerifyOTP(context.Background(), jar, "magic", provider.OTPMagicLink)
	require.NoError(t, err)
	require.Equal(t, "a1", s.AccessToken)

	_, err = f.client.VerifyOTP(context.Background(), jar, "change", provider.OTPEmailChange)
	require.NoError(t, err)
	require.Equal(t, []sessions.EventType{sessions.SignedIn, sessions.UserUpdated}, f.eventTypes())

	_, err = f.client.VerifyOTP(context.Background(), jar, "unknown", provider.OTPMagicLink)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = f.client.VerifyOTP(context.Background(), jar, "", provider.OTPMagicLink)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRequestEmailChange(t *testing.T) {
	f := setupTestFixture(t, nil)
	exp := time.Now().Add(time.Hour)
	f.auth.Users["good"] = &provider.User{ID: "u1", Email: "old@example.com"}

	u, err := f.client.RequestEmailChange(context.Background(), jarWith(t, &sessions.Session{AccessToken: "good", ExpiresAt: exp.Unix()}), "new@example.com")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", u.NewEmail)
	require.Equal(t, []string{"new@example.com"}, f.auth.EmailRequests)

	_, err = f.client.RequestEmailChange(context.Background(), sessions.NewMemoryJar(), "new@example.com")
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)

	_, err = f.client.RequestEmailChange(context.Background(), jarWith(t, &sessions.Session{AccessToken: "revoked", ExpiresAt: exp.Unix()}), "new@example.com")
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := jarWith(t, &sessions.Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour).Unix(), User: sessions.User{ID: "u1"}})

	require.NoError(t, f.client.SignOut(context.Background(), jar))
	require.Empty(t, jar.Cookies())
	require.Equal(t, []string{"a"}, f.auth.SignedOut)
	require.Equal(t, []sessions.EventType{sessions.SignedOut}, f.eventTypes())

	// Signing out without a session is a no-op.
	require.NoError(t, f.client.SignOut(context.Background(), sessions.NewMemoryJar()))
	require.Len(t, f.events, 1)
}

func TestSubscribeDeliversInOrderAndUnsubscribes(t *testing.T) {
	f := setupTestFixture(t, nil)
	var second []sessions.EventType
	unsubscribe := f.client.Subscribe(func(e sessions.Event) {
		second = append(second, e.Type)
	})
	jar := sessions.NewMemoryJar()
	s := &sessions.Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour).Unix()}

	require.NoError(t, f.client.SetSession(context.Background(), jar, s))
	require.NoError(t, f.client.SignOut(context.Background(), jar))
	require.Equal(t, []sessions.EventType{sessions.SignedIn, sessions.SignedOut}, second)

	unsubscribe()
	unsubscribe()
	require.NoError(t, f.client.SetSession(context.Background(), jar, s))
	require.Len(t, second, 2)
	require.Len(t, f.events, 3)
}

func TestClientCookiesMatchSharedOptions(t *testing.T) {
	f := setupTestFixture(t, nil)
	jar := sessions.NewMemoryJar()
	s := &sessions.Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	require.NoError(t, f.client.SetSession(context.Background(), jar, s))

	// A session written by the request middleware codec must read back through the client and vice versa.
	middlewareCodec := sessions.NewCookieCodec(sessions.CookieName("abcd"), f.client.CookieOptions(), 3180)
	fromClient, err := middlewareCodec.Decode(jar.Cookies())
	require.NoError(t, err)
	require.Equal(t, "a", fromClient.AccessToken)

	for _, c := range jar.Writes() {
		require.Equal(t, testCookieOptions.Domain, c.Domain)
		require.Equal(t, testCookieOptions.Path, c.Path)
		require.Equal(t, testCookieOptions.Secure, c.Secure)
		require.Equal(t, testCookieOptions.SameSite, c.SameSite)
	}
}
