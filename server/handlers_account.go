package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-seller-dashboard/account"
	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/rs/zerolog"
)

type accountView struct {
	Details      account.Details
	Errors       map[string]string
	Countries    []account.Country
	EmailSent    string
	EmailError   string
	CurrentEmail string
}

// AccountDetailsHandler renders the account details form
func (s *Server) AccountDetailsHandler() http.HandlerFunc {
	tmpl := parsePage("account_details.html")

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Account details", "account")
		details, err := s.services.Accounts.Fetch(r.Context(), jarFromRequest(w, r))
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your account details."
			render(w, r, tmpl, "layout", http.StatusOK, page)
			return
		}
		page.View = s.accountView(page, *details)
		render(w, r, tmpl, "layout", http.StatusOK, page)
	}
}

// AccountDetailsUpdateHandler saves the fields that differ from the stored details
func (s *Server) AccountDetailsUpdateHandler() http.HandlerFunc {
	tmpl := parsePage("account_details.html")

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Account details", "account")
		page.Retry = RouteAccountDetails
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		jar := jarFromRequest(w, r)
		current, err := s.services.Accounts.Fetch(r.Context(), jar)
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your account details."
			render(w, r, tmpl, "layout", http.StatusOK, page)
			return
		}

		edited := detailsFromForm(r, *current)
		updated, err := s.services.Accounts.Update(r.Context(), jar, current.Diff(edited))
		var invalid account.ValidationErrors
		switch {
		case errors.As(err, &invalid):
			view := s.accountView(page, edited)
			view.Errors = invalid.Fields()
			page.View = view
			render(w, r, tmpl, "layout", http.StatusOK, page)
			return
		case err != nil:
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't save your changes."
			render(w, r, tmpl, "layout", http.StatusOK, page)
			return
		}

		zerolog.Ctx(r.Context()).Info().Msg("account details updated")
		page.Flash = "Your details have been saved."
		page.View = s.accountView(page, *updated)
		render(w, r, tmpl, "layout", http.StatusOK, page)
	}
}

// EmailChangeHandler starts the email confirmation flow
func (s *Server) EmailChangeHandler() http.HandlerFunc {
	tmpl := parsePage("account_details.html")

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Account details", "account")
		page.Retry = RouteAccountDetails
		jar := jarFromRequest(w, r)
		details, err := s.services.Accounts.Fetch(r.Context(), jar)
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your account details."
			render(w, r, tmpl, "layout", http.StatusOK, page)
			return
		}

		view := s.accountView(page, *details)
		newEmail := r.FormValue("email")
		err = s.services.Accounts.RequestEmailChange(r.Context(), jar, view.CurrentEmail, newEmail)
		var invalid *apperrors.ValidationError
		switch {
		case errors.As(err, &invalid):
			view.EmailError = invalid.Message
		case err != nil:
			if s.handleLoadError(w, r, err) {
				return
			}
			view.EmailError = "We couldn't start the email change. Please try again."
		default:
			view.EmailSent = strings.TrimSpace(newEmail)
		}
		page.View = view
		render(w, r, tmpl, "layout", http.StatusOK, page)
	}
}

func (s *Server) accountView(page pageData, details account.Details) accountView {
	current := details.Personal.Email
	if page.Seller != nil && page.Seller.Session != nil && page.Seller.Session.User.Email != "" {
		current = page.Seller.Session.User.Email
	}
	return accountView{
		Details:      details,
		Countries:    account.Countries,
		CurrentEmail: current,
	}
}

// detailsFromForm overlays the submitted fields on current. Fields missing
// from the form keep their stored value.
func detailsFromForm(r *http.Request, current account.Details) account.Details {
	edited := current
	field := func(dst *string, name string) {
		if values, ok := r.PostForm[name]; ok && len(values) > 0 {
			*dst = values[0]
		}
	}
	field(&edited.Personal.Name, "personal.name")
	field(&edited.Personal.Phone, "personal.phone")
	field(&edited.Business.CompanyName, "business.company_name")
	field(&edited.Business.RegistrationNumber, "business.registration_number")
	field(&edited.Business.BusinessAddress, "business.business_address")
	field(&edited.Business.StateProvince, "business.state_province")
	field(&edited.Business.City, "business.city")
	field(&edited.Business.ZipCode, "business.zip_code")
	field(&edited.Business.Country, "business.country")
	return edited
}
