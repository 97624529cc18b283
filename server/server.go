// Package server renders the seller dashboard and gates every page behind the
// seller auth check.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-seller-dashboard/account"
	"github.com/jrsteele09/go-seller-dashboard/auth"
	"github.com/jrsteele09/go-seller-dashboard/internal/config"
	"github.com/jrsteele09/go-seller-dashboard/notifications"
	"github.com/jrsteele09/go-seller-dashboard/products"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// TokenRevoker invalidates an access token locally at sign-out.
type TokenRevoker interface {
	Revoke(raw string) error
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Services are the components the handlers call.
type Services struct {
	Sessions      *sessions.Client
	Gate          *auth.Gate
	Accounts      *account.Loader
	Products      *products.Loader
	Notifications *notifications.Service

	// Optional.
	Revoker  TokenRevoker
	Observer RequestObserver
	Gatherer prometheus.Gatherer
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	router   chi.Router
	routes   []string
	config   config.Config
	services Services
	limiter  *RateLimiter
}

func New(cfg config.Config, services Services) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	switch {
	case services.Sessions == nil:
		return nil, errors.New("[Server New] session client is required")
	case services.Gate == nil:
		return nil, errors.New("[Server New] auth gate is required")
	case services.Accounts == nil:
		return nil, errors.New("[Server New] account loader is required")
	case services.Products == nil:
		return nil, errors.New("[Server New] products loader is required")
	case services.Notifications == nil:
		return nil, errors.New("[Server New] notification service is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		router:   chi.NewRouter(),
		config:   cfg,
		services: services,
		limiter:  NewRateLimiter(rate.Limit(cfg.GetRequestsPerSecond()), cfg.GetRequestBurst()),
	}
	if cfg.GetTrustProxyHeaders() {
		s.router.Use(middleware.RealIP)
	}
	s.router.NotFound(ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// RegisterRouteHandler registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	method, path := splitPattern(pattern)
	s.routes = append(s.routes, pattern)
	if method == "" {
		s.router.Handle(path, handler)
		return
	}
	s.router.Method(method, path, handler)
}

func splitPattern(pattern string) (method, path string) {
	parts := strings.SplitN(pattern, " ", 2)
	if len(parts) > 1 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		logRoute(splitPattern(route))
	}
}

func logRoute(method, path string) {
	log.Debug().Msg(fmt.Sprintf("[%-19s] %s", colourMethod(method), path))
}

func logError(method, path, error string) {
	log.Error().Msg(fmt.Sprintf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor))
}

// getScheme determines the scheme (http/https) the client used.
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
