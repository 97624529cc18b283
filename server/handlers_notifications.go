package server

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-seller-dashboard/auth"
	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/notifications"
)

const notificationsPanel = "notifications_panel"

// NotificationsHandler renders the notification preferences panel
func (s *Server) NotificationsHandler() http.HandlerFunc {
	tmpl := parsePage("notifications.html")

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Notifications", "notifications")
		seller, ok := sellerFromContext(r.Context())
		if !ok {
			s.redirectToLogin(w, r)
			return
		}
		prefs, err := s.services.Notifications.Get(r.Context(), seller.Session.AccessToken, seller.Session.UserID())
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your notification preferences."
		}
		page.View = prefs
		render(w, r, tmpl, "layout", http.StatusOK, page)
	}
}

// NotificationToggleHandler flips one channel of one preference
func (s *Server) NotificationToggleHandler() http.HandlerFunc {
	tmpl := parsePage("notifications.html")

	return s.preferenceChange(tmpl, func(r *http.Request, seller *auth.SellerAuth) (*notifications.Preferences, error) {
		channel, err := notifications.ParseChannel(r.FormValue("channel"))
		if err != nil {
			return nil, err
		}
		return s.services.Notifications.Toggle(r.Context(), seller.Session.AccessToken, seller.Session.UserID(), r.FormValue("item"), channel)
	})
}

// DailyDigestHandler turns the daily digest on or off
func (s *Server) DailyDigestHandler() http.HandlerFunc {
	tmpl := parsePage("notifications.html")

	return s.preferenceChange(tmpl, func(r *http.Request, seller *auth.SellerAuth) (*notifications.Preferences, error) {
		enabled, err := strconv.ParseBool(r.FormValue("enabled"))
		if err != nil {
			return nil, &apperrors.ValidationError{Field: "enabled", Message: "Invalid digest setting"}
		}
		return s.services.Notifications.SetDailyDigest(r.Context(), seller.Session.AccessToken, seller.Session.UserID(), enabled)
	})
}

// preferenceChange applies change and re-renders the panel, as a fragment for htmx requests.
func (s *Server) preferenceChange(tmpl *template.Template, change func(*http.Request, *auth.SellerAuth) (*notifications.Preferences, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Notifications", "notifications")
		page.Retry = RouteAccountNotifications
		seller, ok := sellerFromContext(r.Context())
		if !ok {
			s.redirectToLogin(w, r)
			return
		}

		status := http.StatusOK
		prefs, err := change(r, seller)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound):
			status = http.StatusBadRequest
			page.Notice = "That preference can't be changed."
		default:
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Notice = "We couldn't save your preference. Please try again."
		}
		if prefs == nil {
			// Show what is stored so the panel reflects reality.
			prefs, err = s.services.Notifications.Get(r.Context(), seller.Session.AccessToken, seller.Session.UserID())
			if err != nil {
				if s.handleLoadError(w, r, err) {
					return
				}
				page.Error = "We couldn't load your notification preferences."
			}
		}
		page.View = prefs

		if isHTMXRequest(r) && r.Header.Get("HX-Boosted") != "true" {
			render(w, r, tmpl, notificationsPanel, http.StatusOK, page)
			return
		}
		render(w, r, tmpl, "layout", status, page)
	}
}
