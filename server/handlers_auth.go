package server

import (
	"net/http"

	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/rs/zerolog"
)

// LogoutHandler signs the seller out and sends them to the login page
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		jar := jarFromRequest(w, r)

		if s.services.Revoker != nil {
			if session, err := s.services.Sessions.CurrentSession(r.Context(), jar); err == nil && session != nil && session.AccessToken != "" {
				if err := s.services.Revoker.Revoke(session.AccessToken); err != nil {
					logger.Warn().Err(err).Msg("failed to revoke access token")
				}
			}
		}
		if err := s.services.Sessions.SignOut(r.Context(), jar); err != nil {
			logger.Error().Err(err).Msg("sign out failed")
		}

		redirectSuccess(w, r, s.services.Gate.URLs().Login(s.config.GetBaseURL()+s.config.GetDefaultReturnPath()))
	}
}

// ConfirmHandler redeems the token hash of an emailed confirmation link and
// continues to the local path in next.
func (s *Server) ConfirmHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		next := s.safeNextPath(q.Get("next"))
		otpType := provider.OTPType(q.Get("type"))
		if otpType == "" {
			otpType = provider.OTPEmail
		}

		session, err := s.services.Sessions.VerifyOTP(r.Context(), jarFromRequest(w, r), q.Get("token_hash"), otpType)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("type", string(otpType)).Msg("confirmation link rejected")
			http.Redirect(w, r, s.services.Gate.URLs().Login(s.config.GetBaseURL()+next), http.StatusSeeOther)
			return
		}
		if session == nil {
			zerolog.Ctx(r.Context()).Info().Str("type", string(otpType)).Msg("confirmation accepted without a session")
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}
