package config

import "time"

type SecurityConfig interface {
	GetCookieDomain() string
	GetCookieSecure() bool
	GetCookieMaxAge() time.Duration
	GetCookieChunkSize() int
	GetRefreshMargin() time.Duration
	GetRequestsPerSecond() float64
	GetRequestBurst() int
	GetTrustProxyHeaders() bool
}

type Security struct {
	values fileValues
}

var _ SecurityConfig = Security{}

// GetCookieDomain is the parent domain shared by the dashboard and the auth service.
func (s Security) GetCookieDomain() string {
	return s.values.get("COOKIE_DOMAIN", ".dropleather.com")
}

func (s Security) GetCookieSecure() bool {
	return s.values.getBool("COOKIE_SECURE", true)
}

func (s Security) GetCookieMaxAge() time.Duration {
	return s.values.getDuration("COOKIE_MAX_AGE", 400*24*time.Hour)
}

func (s Security) GetCookieChunkSize() int {
	return s.values.getInt("COOKIE_CHUNK_SIZE", 3180)
}

// GetRefreshMargin is how long before expiry an access token is refreshed.
func (s Security) GetRefreshMargin() time.Duration {
	return s.values.getDuration("REFRESH_MARGIN", 30*time.Second)
}

func (s Security) GetRequestsPerSecond() float64 {
	return float64(s.values.getInt("REQUESTS_PER_MINUTE", 240)) / 60.0
}

func (s Security) GetRequestBurst() int {
	return s.values.getInt("REQUEST_BURST", 60)
}

// GetTrustProxyHeaders takes the client address from X-Forwarded-For and
// X-Real-IP. Enable only behind a proxy that overwrites those headers.
func (s Security) GetTrustProxyHeaders() bool {
	return s.values.getBool("TRUST_PROXY_HEADERS", false)
}
