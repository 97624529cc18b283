package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/notifications"
	fakenotificationrepo "github.com/jrsteele09/go-seller-dashboard/notifications/repofake"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*notifications.Service, *fakenotificationrepo.FakePreferencesRepo) {
	t.Helper()
	repo := fakenotificationrepo.NewFakePreferencesRepo()
	svc, err := notifications.NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestDefaults(t *testing.T) {
	p := notifications.Defaults()
	require.False(t, p.DailyDigest)
	require.Len(t, p.Items, 6)
	for _, item := range p.Items {
		require.False(t, item.Email, item.ID)
		require.False(t, item.App, item.ID)
	}
	_, ok := p.Item("sequence-invites")
	require.True(t, ok)
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc, repo := setupService(t)

	p, err := svc.Get(context.Background(), "tok", "u1")
	require.NoError(t, err)
	require.Equal(t, notifications.Defaults(), p)
	require.Zero(t, repo.Saves)
}

func TestToggle(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	p, err := svc.Toggle(ctx, "tok", "u1", "replies", notifications.ChannelEmail)
	require.NoError(t, err)
	item, _ := p.Item("replies")
	require.True(t, item.Email)
	require.False(t, item.App)

	p, err = svc.Toggle(ctx, "tok", "u1", "replies", notifications.ChannelApp)
	require.NoError(t, err)
	item, _ = p.Item("replies")
	require.True(t, item.Email)
	require.True(t, item.App)

	p, err = svc.Toggle(ctx, "tok", "u1", "replies", notifications.ChannelEmail)
	require.NoError(t, err)
	item, _ = p.Item("replies")
	require.False(t, item.Email)
	require.Equal(t, 3, repo.Saves)

	stored, err := svc.Get(ctx, "tok", "u1")
	require.NoError(t, err)
	require.Equal(t, p, stored)
}

func TestToggleRejectsUnknownItemOrChannel(t *testing.T) {
	svc, repo := setupService(t)

	_, err := svc.Toggle(context.Background(), "tok", "u1", "newsletter", notifications.ChannelEmail)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Toggle(context.Background(), "tok", "u1", "replies", notifications.Channel("sms"))
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Zero(t, repo.Saves)

	_, err = notifications.ParseChannel("sms")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	c, err := notifications.ParseChannel("app")
	require.NoError(t, err)
	require.Equal(t, notifications.ChannelApp, c)
}

func TestSetDailyDigest(t *testing.T) {
	svc, _ := setupService(t)

	p, err := svc.SetDailyDigest(context.Background(), "tok", "u1", true)
	require.NoError(t, err)
	require.True(t, p.DailyDigest)

	p, err = svc.Get(context.Background(), "tok", "u1")
	require.NoError(t, err)
	require.True(t, p.DailyDigest)
}

func TestSaveFailures(t *testing.T) {
	svc, repo := setupService(t)

	repo.SaveErr = errors.New("connection reset")
	_, err := svc.SetDailyDigest(context.Background(), "tok", "u1", true)
	require.EqualError(t, err, "connection reset")

	repo.SaveErr = &apperrors.APIError{Status: http.StatusUnauthorized}
	_, err = svc.SetDailyDigest(context.Background(), "tok", "u1", true)
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestProviderRepoRoundTrip(t *testing.T) {
	var (
		mu   sync.Mutex
		rows = map[string]json.RawMessage{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path != "/rest/v1/notification_preferences" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			var row struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(body, &row)
			rows["eq."+row.ID] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			row, ok := rows[r.URL.Query().Get("id")]
			if !ok {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte("[" + string(row) + "]"))
		}
	}))
	defer srv.Close()

	data := provider.NewDataAPI(provider.StaticConfig{URL: srv.URL, AnonKey: "anon"}, srv.Client(), "api")
	repo, err := notifications.NewProviderRepo(data)
	require.NoError(t, err)
	svc, err := notifications.NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := svc.Get(ctx, "tok", "u1")
	require.NoError(t, err)
	require.Equal(t, notifications.Defaults(), p)

	_, err = svc.Toggle(ctx, "tok", "u1", "mentions", notifications.ChannelApp)
	require.NoError(t, err)
	p, err = svc.SetDailyDigest(ctx, "tok", "u1", true)
	require.NoError(t, err)

	stored, err := svc.Get(ctx, "tok", "u1")
	require.NoError(t, err)
	require.Equal(t, p, stored)
	item, _ := stored.Item("mentions")
	require.True(t, item.App)
}
