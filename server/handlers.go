package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/jrsteele09/go-seller-dashboard/auth"
	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/users"
	"github.com/rs/zerolog"
)

// pageData is what every dashboard page renders with.
type pageData struct {
	AppName  string
	Title    string
	Active   string
	Seller   *auth.SellerAuth
	Flash    string
	Notice   string
	Error    string
	Retry    string
	Features []planFeature
	Upgrade  bool
	View     any
}

// planFeature is a sidebar entry shown locked when the seller's plan lacks it.
type planFeature struct {
	Label  string
	Locked bool
}

var sidebarFeatures = []struct {
	name  string
	label string
}{
	{users.FeatureBranding, "Branding"},
	{users.FeatureBrandLabAI, "Brand Lab AI"},
	{users.FeatureVirtualModel, "Virtual model"},
	{users.FeaturePrivateProducts, "Private products"},
	{users.FeatureIntegration, "Integrations"},
}

func planFeatures(plan users.Plan) []planFeature {
	out := make([]planFeature, 0, len(sidebarFeatures))
	for _, f := range sidebarFeatures {
		out = append(out, planFeature{Label: f.label, Locked: !plan.HasFeature(f.name)})
	}
	return out
}

func (s *Server) newPage(r *http.Request, title, active string) pageData {
	seller, _ := sellerFromContext(r.Context())
	page := pageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Active:  active,
		Seller:  seller,
		Retry:   r.URL.RequestURI(),
	}
	if seller != nil {
		plan := seller.Display.SubscriptionPlan
		page.Features = planFeatures(plan)
		page.Upgrade = !plan.IsPaid()
	}
	return page
}

// handleLoadError reports whether err was handled by redirecting to login. A
// sign-in redirect never shows an error state.
func (s *Server) handleLoadError(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, apperrors.ErrAuthRequired) {
		zerolog.Ctx(r.Context()).Info().Err(err).Msg("session no longer valid, redirecting to login")
		s.redirectToLogin(w, r)
		return true
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("load failed")
	return false
}

func render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, name string, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
	}
}

// IndexHandler sends the browser to the default dashboard page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.config.GetDefaultReturnPath(), http.StatusSeeOther)
	}
}

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("not_found.html")
	if err != nil {
		panic("Failed to parse not found template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, "not_found.html", http.StatusNotFound, map[string]any{
			"AppName": s.config.GetAppName(),
			"Home":    s.config.GetDefaultReturnPath(),
		})
	}
}
