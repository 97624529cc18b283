package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Account
	RouteAccountDetails       = "/account/details"
	RouteAccountEmail         = "/account/email"
	RouteAccountNotifications = "/account/notifications"
	RouteNotificationsToggle  = "/account/notifications/toggle"
	RouteNotificationsDigest  = "/account/notifications/digest"

	// Products
	RouteProductsShowcase = "/products/showcase"
	RouteProductsGrid     = "/products/showcase/grid"

	// Auth
	RouteAuthLogout  = "/auth/logout"
	RouteAuthConfirm = "/auth/confirm"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/*"
)
