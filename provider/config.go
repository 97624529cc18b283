// Package provider is a client for the remote auth/data provider: its
// configuration endpoint, auth endpoints and row-level data endpoints.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Config is the provider configuration served by GET /v1/config/supabase.
type Config struct {
	URL     string `json:"url"`
	AnonKey string `json:"anonKey"`
}

// ProjectRef is the first label of the provider host. Session cookie names are derived from it.
func (c Config) ProjectRef() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.SplitN(u.Hostname(), ".", 2)[0]
}

// RealtimeURL is the websocket endpoint of the provider's change feed.
func (c Config) RealtimeURL() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", c.AnonKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String()
}

type configEnvelope struct {
	Config Config `json:"config"`
}

// ConfigSource supplies the provider configuration.
type ConfigSource interface {
	Load(ctx context.Context) (Config, error)
}

// ConfigLoader fetches the provider configuration on first use and caches it
// for the lifetime of the process. Concurrent first callers share one fetch.
// A failed fetch is not cached: the next call tries again.
type ConfigLoader struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration

	group  singleflight.Group
	mu     sync.RWMutex
	cached *Config
}

var _ ConfigSource = (*ConfigLoader)(nil)

// NewConfigLoader creates a loader for the given configuration endpoint.
func NewConfigLoader(endpoint string, httpClient *http.Client, timeout time.Duration) *ConfigLoader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConfigLoader{
		endpoint:   endpoint,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// Load returns the cached configuration or fetches it.
func (l *ConfigLoader) Load(ctx context.Context) (Config, error) {
	if cfg, ok := l.get(); ok {
		return cfg, nil
	}

	ch := l.group.DoChan("config", func() (any, error) {
		if cfg, ok := l.get(); ok {
			return cfg, nil
		}
		// Detached from the first caller so that its cancellation does not fail the others.
		fetchCtx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		cfg, err := l.fetch(fetchCtx)
		if err != nil {
			return Config{}, err
		}
		l.mu.Lock()
		l.cached = &cfg
		l.mu.Unlock()
		log.Info().Str("provider_url", cfg.URL).Msg("provider configuration loaded")
		return cfg, nil
	})

	select {
	case <-ctx.Done():
		return Config{}, fmt.Errorf("%w: %v", apperrors.ErrConfigUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Config{}, res.Err
		}
		return res.Val.(Config), nil
	}
}

func (l *ConfigLoader) get() (Config, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil {
		return Config{}, false
	}
	return *l.cached, true
}

func (l *ConfigLoader) fetch(ctx context.Context) (Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Config{}, fmt.Errorf("%w: building request: %v", apperrors.ErrConfigUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", apperrors.ErrConfigUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Config{}, fmt.Errorf("%w: status %d", apperrors.ErrConfigUnavailable, resp.StatusCode)
	}

	var env configEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Config{}, fmt.Errorf("%w: decoding response: %v", apperrors.ErrConfigUnavailable, err)
	}
	if env.Config.URL == "" || env.Config.AnonKey == "" {
		return Config{}, fmt.Errorf("%w: incomplete configuration", apperrors.ErrConfigUnavailable)
	}
	env.Config.URL = strings.TrimRight(env.Config.URL, "/")
	return env.Config, nil
}

// StaticConfig is a ConfigSource with a fixed configuration.
type StaticConfig Config

func (s StaticConfig) Load(context.Context) (Config, error) {
	return Config(s), nil
}
