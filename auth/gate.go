// Package auth decides whether a request may see the seller dashboard.
package auth

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/jrsteele09/go-seller-dashboard/token"
	"github.com/jrsteele09/go-seller-dashboard/users"
	"github.com/rs/zerolog/log"
)

// SessionSource resolves the session carried by a cookie jar.
type SessionSource interface {
	CurrentSession(ctx context.Context, jar sessions.Jar) (*sessions.Session, error)
}

var _ SessionSource = (*sessions.Client)(nil)

// TokenVerifier checks an access token before it is trusted.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*token.Claims, error)
}

var _ TokenVerifier = (*token.Verifier)(nil)

// DecisionObserver is told the outcome of every gate check: "admitted" or a denial reason.
type DecisionObserver interface {
	ObserveGateDecision(outcome string)
}

const OutcomeAdmitted = "admitted"

// SellerAuth is what a request that passed the gate carries.
type SellerAuth struct {
	Session *sessions.Session
	Profile *users.UserProfile
	Display users.DisplayProfile
}

// Denial is returned when the gate refuses a request. It carries only where
// to send the browser; why it was refused is logged, never rendered.
type Denial struct {
	Reason      DenialReason
	RedirectURL string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("seller auth denied: %s", d.Reason)
}

// Unwrap maps the denial onto ErrAuthRequired (sign in again) or ErrAccessDenied.
func (d *Denial) Unwrap() error {
	if d.Reason == ReasonAccessDenied {
		return apperrors.ErrAccessDenied
	}
	return apperrors.ErrAuthRequired
}

// Gate runs the seller check before a protected page renders.
type Gate struct {
	configs         provider.ConfigSource
	sessions        SessionSource
	profiles        users.ProfileRepo
	verifier        TokenVerifier
	observer        DecisionObserver
	urls            URLs
	requiredRole    users.RoleType
	defaultReturnTo string
}

type GateOption func(*Gate)

// WithRequiredRole overrides the role a profile must hold.
func WithRequiredRole(role users.RoleType) GateOption {
	return func(g *Gate) {
		g.requiredRole = role
	}
}

// WithTokenVerifier makes the gate verify the session's access token.
func WithTokenVerifier(v TokenVerifier) GateOption {
	return func(g *Gate) {
		g.verifier = v
	}
}

func WithDecisionObserver(o DecisionObserver) GateOption {
	return func(g *Gate) {
		g.observer = o
	}
}

// WithDefaultReturnTo sets the destination used when a caller has none.
func WithDefaultReturnTo(returnTo string) GateOption {
	return func(g *Gate) {
		g.defaultReturnTo = returnTo
	}
}

func NewGate(configs provider.ConfigSource, sessionSource SessionSource, profiles users.ProfileRepo, urls URLs, options ...GateOption) (*Gate, error) {
	if configs == nil {
		return nil, errors.New("[NewGate] config source is required")
	}
	if sessionSource == nil {
		return nil, errors.New("[NewGate] session source is required")
	}
	if profiles == nil {
		return nil, errors.New("[NewGate] profile repo is required")
	}
	g := &Gate{
		configs:      configs,
		sessions:     sessionSource,
		profiles:     profiles,
		urls:         urls,
		requiredRole: users.RoleSeller,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// URLs returns the gate's auth entry points.
func (g *Gate) URLs() URLs {
	return g.urls
}

// RequireSellerAuth admits the request when its session belongs to an active
// seller. Steps run strictly in order: provider configuration, session,
// profile record, role and active flag, display profile. Any failure before
// the display profile yields a *Denial; a missing display profile falls back
// to defaults instead.
func (g *Gate) RequireSellerAuth(ctx context.Context, jar sessions.Jar, returnTo string) (*SellerAuth, error) {
	if returnTo == "" {
		returnTo = g.defaultReturnTo
	}

	if _, err := g.configs.Load(ctx); err != nil {
		log.Err(err).Msg("seller auth: provider configuration unavailable")
		return nil, g.deny(ReasonLogin, returnTo)
	}

	session, err := g.sessions.CurrentSession(ctx, jar)
	if err != nil {
		log.Err(err).Msg("seller auth: session lookup failed")
		return nil, g.deny(ReasonLogin, returnTo)
	}
	if session == nil || session.AccessToken == "" {
		return nil, g.deny(ReasonLogin, returnTo)
	}

	if g.verifier != nil {
		if _, err := g.verifier.Verify(ctx, session.AccessToken); err != nil {
			log.Warn().Err(err).Str("user_id", session.UserID()).Msg("seller auth: access token rejected")
			return nil, g.deny(ReasonLogin, returnTo)
		}
	}

	userID := session.UserID()
	profile, err := g.profiles.GetUserProfile(ctx, session.AccessToken, userID)
	if err != nil || profile == nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("seller auth: profile lookup failed")
		return nil, g.deny(ReasonAccessDenied, returnTo)
	}

	if !profile.HasActiveRole(g.requiredRole) {
		log.Info().
			Str("user_id", userID).
			Str("role", string(profile.Role)).
			Bool("is_active", profile.IsActive).
			Msg("seller auth: not an active seller")
		return nil, g.deny(ReasonAccessDenied, returnTo)
	}

	display, err := g.profiles.GetDisplayProfile(ctx, session.AccessToken, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", userID).Msg("seller auth: display profile unavailable, using defaults")
	}
	email := session.User.Email
	if email == "" {
		email = profile.Email
	}

	g.observe(OutcomeAdmitted)
	return &SellerAuth{
		Session: session,
		Profile: profile,
		Display: display.WithFallbacks(userID, email),
	}, nil
}

func (g *Gate) deny(reason DenialReason, returnTo string) *Denial {
	g.observe(string(reason))
	return &Denial{Reason: reason, RedirectURL: g.urls.For(reason, returnTo)}
}

func (g *Gate) observe(outcome string) {
	if g.observer != nil {
		g.observer.ObserveGateDecision(outcome)
	}
}
