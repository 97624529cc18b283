package sessions

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-seller-dashboard/internal/config"
)

const (
	base64Prefix     = "base64-"
	defaultChunkSize = 3180
)

// CookieOptions are the attributes of every session cookie write. The same
// options must be used by every writer (request middleware and handlers)
// or the browser ends up holding divergent sessions.
type CookieOptions struct {
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// DefaultCookieOptions builds the shared cookie attributes from configuration.
// The cookie is readable by scripts because the auth service's browser client
// reads it on the shared parent domain.
func DefaultCookieOptions(cfg config.SecurityConfig) CookieOptions {
	return CookieOptions{
		Domain:   cfg.GetCookieDomain(),
		Path:     "/",
		Secure:   cfg.GetCookieSecure(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cfg.GetCookieMaxAge(),
	}
}

// CookieName returns the session cookie name for a provider project.
func CookieName(projectRef string) string {
	return "sb-" + projectRef + "-auth-token"
}

// CookieCodec converts sessions to and from (possibly chunked) cookies.
type CookieCodec struct {
	name      string
	opts      CookieOptions
	chunkSize int
}

// NewCookieCodec creates a codec writing cookies called name (or name.0, name.1, ... when chunked).
func NewCookieCodec(name string, opts CookieOptions, chunkSize int) CookieCodec {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return CookieCodec{name: name, opts: opts, chunkSize: chunkSize}
}

// Name is the base cookie name.
func (c CookieCodec) Name() string {
	return c.name
}

// Encode returns the cookies to set for s, followed by deletions for any
// existing session cookies that the new set does not overwrite.
func (c CookieCodec) Encode(s *Session, existing []*http.Cookie) ([]*http.Cookie, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("[CookieCodec Encode] marshalling session: %w", err)
	}
	value := base64Prefix + base64.RawURLEncoding.EncodeToString(data)

	var out []*http.Cookie
	written := map[string]bool{}
	if len(value) <= c.chunkSize {
		out = append(out, c.cookie(c.name, value))
		written[c.name] = true
	} else {
		for i := 0; len(value) > 0; i++ {
			n := min(c.chunkSize, len(value))
			name := c.chunkName(i)
			out = append(out, c.cookie(name, value[:n]))
			written[name] = true
			value = value[n:]
		}
	}

	for _, name := range c.sessionCookieNames(existing) {
		if !written[name] {
			out = append(out, c.expired(name))
		}
	}
	return out, nil
}

// Clear returns deletions for every session cookie in existing.
func (c CookieCodec) Clear(existing []*http.Cookie) []*http.Cookie {
	var out []*http.Cookie
	for _, name := range c.sessionCookieNames(existing) {
		out = append(out, c.expired(name))
	}
	return out
}

// Decode rebuilds the session from cookies. It returns nil without error when
// no session cookie is present.
func (c CookieCodec) Decode(cookies []*http.Cookie) (*Session, error) {
	byName := make(map[string]string, len(cookies))
	for _, ck := range cookies {
		byName[ck.Name] = ck.Value
	}

	value, ok := byName[c.name]
	if !ok {
		var b strings.Builder
		for i := 0; ; i++ {
			chunk, ok := byName[c.chunkName(i)]
			if !ok {
				break
			}
			b.WriteString(chunk)
		}
		value = b.String()
	}
	if value == "" {
		return nil, nil
	}

	data := []byte(value)
	if strings.HasPrefix(value, base64Prefix) {
		decoded, err := decodeBase64(strings.TrimPrefix(value, base64Prefix))
		if err != nil {
			return nil, fmt.Errorf("[CookieCodec Decode] decoding cookie value: %w", err)
		}
		data = decoded
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("[CookieCodec Decode] unmarshalling session: %w", err)
	}
	return &s, nil
}

func (c CookieCodec) chunkName(i int) string {
	return c.name + "." + strconv.Itoa(i)
}

// sessionCookieNames returns the names in existing that belong to this codec.
func (c CookieCodec) sessionCookieNames(existing []*http.Cookie) []string {
	seen := map[string]bool{}
	var names []string
	for _, ck := range existing {
		if seen[ck.Name] || !c.isSessionCookie(ck.Name) {
			continue
		}
		seen[ck.Name] = true
		names = append(names, ck.Name)
	}
	sort.Strings(names)
	return names
}

func (c CookieCodec) isSessionCookie(name string) bool {
	if name == c.name {
		return true
	}
	suffix, ok := strings.CutPrefix(name, c.name+".")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

func (c CookieCodec) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.opts.Domain,
		Path:     c.opts.Path,
		Secure:   c.opts.Secure,
		HttpOnly: c.opts.HTTPOnly,
		SameSite: c.opts.SameSite,
		MaxAge:   int(c.opts.MaxAge.Seconds()),
	}
}

func (c CookieCodec) expired(name string) *http.Cookie {
	ck := c.cookie(name, "")
	ck.MaxAge = -1
	return ck
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("invalid base64 session value")
}
