package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-seller-dashboard/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// Pages behind the seller gate
	seller := s.HTMLMiddleWare(s.RequireSellerAuth())
	s.RegisterRouteHandler("GET "+RouteAccountDetails, ChainMiddleware(s.AccountDetailsHandler(), seller...))
	s.RegisterRouteHandler("POST "+RouteAccountDetails, ChainMiddleware(s.AccountDetailsUpdateHandler(), seller...))
	s.RegisterRouteHandler("POST "+RouteAccountEmail, ChainMiddleware(s.EmailChangeHandler(), seller...))
	s.RegisterRouteHandler("GET "+RouteAccountNotifications, ChainMiddleware(s.NotificationsHandler(), seller...))
	s.RegisterRouteHandler("POST "+RouteNotificationsToggle, ChainMiddleware(s.NotificationToggleHandler(), seller...))
	s.RegisterRouteHandler("POST "+RouteNotificationsDigest, ChainMiddleware(s.DailyDigestHandler(), seller...))
	s.RegisterRouteHandler("GET "+RouteProductsShowcase, ChainMiddleware(s.ProductsShowcaseHandler(), seller...))
	s.RegisterRouteHandler("GET "+RouteProductsGrid, ChainMiddleware(s.ProductsGridHandler(), seller...))

	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthConfirm, ChainMiddleware(s.ConfirmHandler(), s.HTMLMiddleWare()...))

	// Operations
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	if s.services.Gatherer != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler(s.services.Gatherer))
	}

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/static/")
		if filePath == "" || strings.Contains(filePath, "..") {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
