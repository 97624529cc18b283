package config

import (
	"strings"
	"time"
)

// ProviderConfig covers the remote auth/data provider and the seller business API.
type ProviderConfig interface {
	GetAPIBaseURL() string
	GetProviderConfigURL() string
	GetProviderConfigTimeout() time.Duration
	GetAPITimeout() time.Duration
	GetAPIMaxRetries() int
	GetDataSchema() string
	GetStorageBaseURL() string
	GetRealtimeEnabled() bool
	GetVerifyAccessTokens() bool
}

// AuthConfig covers the external auth entry points and the role gate.
type AuthConfig interface {
	GetAuthBaseURL() string
	GetRequiredRole() string
}

type Provider struct {
	values fileValues
}

var _ ProviderConfig = Provider{}

func (p Provider) GetAPIBaseURL() string {
	return strings.TrimRight(p.values.get("API_BASE_URL", "https://api.dropleather.com"), "/")
}

// GetProviderConfigURL is the endpoint serving { config: { url, anonKey } }.
func (p Provider) GetProviderConfigURL() string {
	return p.values.get("PROVIDER_CONFIG_URL", p.GetAPIBaseURL()+"/v1/config/supabase")
}

func (p Provider) GetProviderConfigTimeout() time.Duration {
	return p.values.getDuration("PROVIDER_CONFIG_TIMEOUT", 5*time.Second)
}

func (p Provider) GetAPITimeout() time.Duration {
	return p.values.getDuration("API_TIMEOUT", 10*time.Second)
}

// GetAPIMaxRetries is the number of retries for idempotent business API calls.
func (p Provider) GetAPIMaxRetries() int {
	return p.values.getInt("API_MAX_RETRIES", 2)
}

func (p Provider) GetDataSchema() string {
	return p.values.get("DATA_SCHEMA", "api")
}

func (p Provider) GetStorageBaseURL() string {
	return strings.TrimRight(p.values.get("STORAGE_BASE_URL", "https://data.dropleather.com/storage/v1/object/public/product-images"), "/")
}

func (p Provider) GetRealtimeEnabled() bool {
	return p.values.getBool("REALTIME_ENABLED", true)
}

// GetVerifyAccessTokens enables signature verification of provider access tokens
// against the provider's JWKS in addition to the provider's own checks.
func (p Provider) GetVerifyAccessTokens() bool {
	return p.values.getBool("VERIFY_ACCESS_TOKENS", false)
}

type Auth struct {
	values fileValues
}

var _ AuthConfig = Auth{}

func (a Auth) GetAuthBaseURL() string {
	return strings.TrimRight(a.values.get("AUTH_BASE_URL", "https://auth.dropleather.com"), "/")
}

func (a Auth) GetRequiredRole() string {
	return a.values.get("REQUIRED_ROLE", "seller")
}
