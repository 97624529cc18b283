// Package metrics collects and exposes the dashboard's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-seller-dashboard/auth"
	"github.com/jrsteele09/go-seller-dashboard/realtime"
	"github.com/jrsteele09/go-seller-dashboard/sellerapi"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	_ sellerapi.RequestObserver = (*Collector)(nil)
	_ auth.DecisionObserver     = (*Collector)(nil)
	_ realtime.Observer         = (*Collector)(nil)
)

// Collector records the dashboard's metrics into a registry.
type Collector struct {
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	gateDecisions  *prometheus.CounterVec
	authEvents     *prometheus.CounterVec
	realtimeUp     prometheus.Gauge
	realtimeEvents *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seller_dashboard_api_requests_total",
			Help: "Business API attempts by endpoint and status code (0 for transport failures).",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seller_dashboard_api_request_seconds",
			Help:    "Business API attempt latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seller_dashboard_gate_decisions_total",
			Help: "Seller auth gate outcomes.",
		}, []string{"outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seller_dashboard_auth_events_total",
			Help: "Session events by type.",
		}, []string{"type"}),
		realtimeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seller_dashboard_realtime_connected",
			Help: "1 while the product change feed is joined.",
		}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seller_dashboard_realtime_events_total",
			Help: "Product change events by type.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seller_dashboard_http_requests_total",
			Help: "Dashboard HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seller_dashboard_http_request_seconds",
			Help:    "Dashboard HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.gateDecisions,
		c.authEvents,
		c.realtimeUp,
		c.realtimeEvents,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) ObserveAPIRequest(endpoint string, status int, duration time.Duration) {
	c.apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) ObserveGateDecision(outcome string) {
	c.gateDecisions.WithLabelValues(outcome).Inc()
}

// ObserveAuthEvent counts session events. Pass it to sessions.Client.Subscribe.
func (c *Collector) ObserveAuthEvent(e sessions.Event) {
	c.authEvents.WithLabelValues(string(e.Type)).Inc()
}

func (c *Collector) ObserveRealtimeConnection(state string) {
	if state == realtime.StateConnected {
		c.realtimeUp.Set(1)
		return
	}
	c.realtimeUp.Set(0)
}

func (c *Collector) ObserveRealtimeEvent(eventType string) {
	c.realtimeEvents.WithLabelValues(eventType).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched route pattern.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
