package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/jrsteele09/go-seller-dashboard/users"
	"github.com/stretchr/testify/require"
)

func TestHasActiveRole(t *testing.T) {
	tests := []struct {
		name    string
		profile *users.UserProfile
		want    bool
	}{
		{name: "active seller", profile: &users.UserProfile{Role: users.RoleSeller, IsActive: true}, want: true},
		{name: "inactive seller", profile: &users.UserProfile{Role: users.RoleSeller, IsActive: false}},
		{name: "active buyer", profile: &users.UserProfile{Role: users.RoleBuyer, IsActive: true}},
		{name: "inactive admin", profile: &users.UserProfile{Role: users.RoleAdmin}},
		{name: "no role", profile: &users.UserProfile{IsActive: true}},
		{name: "nil profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.profile.HasActiveRole(users.RoleSeller))
		})
	}
}

func TestDisplayProfileFallbacks(t *testing.T) {
	var missing *users.DisplayProfile
	got := missing.WithFallbacks("u1", "jane.doe@example.com")
	require.Equal(t, users.DisplayProfile{ID: "u1", DisplayName: "jane.doe", Email: "jane.doe@example.com", SubscriptionPlan: users.PlanFree}, got)

	got = missing.WithFallbacks("u1", "")
	require.Equal(t, "Seller", got.DisplayName)
	require.Equal(t, "seller@dropleather.com", got.Email)

	stored := &users.DisplayProfile{ID: "u1", DisplayName: "Jane Doe", SubscriptionPlan: "PRO"}
	got = stored.WithFallbacks("u1", "jane@example.com")
	require.Equal(t, "Jane Doe", got.DisplayName)
	require.Equal(t, "jane@example.com", got.Email)
	require.Equal(t, users.PlanPro, got.SubscriptionPlan)
	require.Equal(t, "JD", got.Initials())
}

func TestPlanFeatures(t *testing.T) {
	require.Equal(t, users.PlanFree, users.ParsePlan(""))
	require.Equal(t, users.PlanFree, users.ParsePlan("platinum"))
	require.Equal(t, users.PlanEnterprise, users.ParsePlan(" Enterprise "))

	require.False(t, users.PlanFree.HasFeature(users.FeatureBranding))
	require.True(t, users.PlanPro.HasFeature(users.FeatureBranding))
	require.True(t, users.PlanEnterprise.HasFeature(users.FeatureIntegration))
	require.True(t, users.PlanFree.HasFeature("products"))

	require.False(t, users.PlanFree.IsPaid())
	require.True(t, users.PlanPro.IsPaid())
}

func TestProviderRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		require.Equal(t, "api", r.Header.Get("Accept-Profile"))
		switch {
		case r.URL.Path == "/rest/v1/user_profiles" && r.URL.Query().Get("id") == "eq.u1":
			require.Equal(t, "id,role,is_active,email", r.URL.Query().Get("select"))
			_, _ = w.Write([]byte(`[{"id":"u1","role":"seller","is_active":true,"email":"u1@example.com"}]`))
		case r.URL.Path == "/rest/v1/seller_profiles" && r.URL.Query().Get("id") == "eq.u1":
			_, _ = w.Write([]byte(`[{"id":"u1","display_name":"Jane","subscription_plan":"pro"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)

	data := provider.NewDataAPI(provider.StaticConfig{URL: srv.URL, AnonKey: "anon"}, srv.Client(), "api")
	repo, err := users.NewProviderRepo(data)
	require.NoError(t, err)

	profile, err := repo.GetUserProfile(context.Background(), "user-token", "u1")
	require.NoError(t, err)
	require.True(t, profile.HasActiveRole(users.RoleSeller))

	display, err := repo.GetDisplayProfile(context.Background(), "user-token", "u1")
	require.NoError(t, err)
	require.Equal(t, users.PlanPro, display.SubscriptionPlan)

	_, err = repo.GetUserProfile(context.Background(), "user-token", "u2")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = users.NewProviderRepo(nil)
	require.Error(t, err)
}
