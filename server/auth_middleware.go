package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-seller-dashboard/auth"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyJar stores the request's cookie jar
	ContextKeyJar ContextKey = "cookie_jar"
	// ContextKeySeller stores the *auth.SellerAuth of an admitted request
	ContextKeySeller ContextKey = "seller"
)

// SessionRefreshMiddleware resolves the session once per request so an
// expiring access token is refreshed and its cookies rewritten before the
// handler runs. The jar is shared with the rest of the request, so later
// reads see the refreshed cookies.
func (s *Server) SessionRefreshMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar := sessions.NewRequestJar(w, r)
		if _, err := s.services.Sessions.CurrentSession(r.Context(), jar); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("session refresh failed")
		}
		ctx := context.WithValue(r.Context(), ContextKeyJar, jar)
		next(w, r.WithContext(ctx))
	}
}

// RequireSellerAuth admits only active sellers. Denied requests are sent to
// the auth service with the original destination as redirect_to.
func (s *Server) RequireSellerAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			result, err := s.services.Gate.RequireSellerAuth(r.Context(), jarFromRequest(w, r), s.returnTo(r))
			if err != nil {
				var denial *auth.Denial
				if errors.As(err, &denial) {
					redirectSuccess(w, r, denial.RedirectURL)
					return
				}
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("seller auth failed")
				redirectSuccess(w, r, s.services.Gate.URLs().Login(s.returnTo(r)))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySeller, result)
			next(w, r.WithContext(ctx))
		}
	}
}

// jarFromRequest returns the jar attached by SessionRefreshMiddleware, or a new one.
func jarFromRequest(w http.ResponseWriter, r *http.Request) sessions.Jar {
	if jar, ok := r.Context().Value(ContextKeyJar).(sessions.Jar); ok {
		return jar
	}
	return sessions.NewRequestJar(w, r)
}

func sellerFromContext(ctx context.Context) (*auth.SellerAuth, bool) {
	seller, ok := ctx.Value(ContextKeySeller).(*auth.SellerAuth)
	return seller, ok && seller != nil
}
