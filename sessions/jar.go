package sessions

import (
	"net/http"
	"sync"
)

// Jar is the cookie store a session is read from and written to.
type Jar interface {
	Cookies() []*http.Cookie
	SetCookies(cookies ...*http.Cookie)
}

// RequestJar reads cookies from an incoming request and writes them to its
// response. Writes are also visible to later reads on the same request, so a
// refresh performed by middleware is seen by the handler that follows it.
type RequestJar struct {
	w       http.ResponseWriter
	r       *http.Request
	mu      sync.Mutex
	pending map[string]*http.Cookie
}

var _ Jar = (*RequestJar)(nil)

func NewRequestJar(w http.ResponseWriter, r *http.Request) *RequestJar {
	return &RequestJar{w: w, r: r, pending: map[string]*http.Cookie{}}
}

func (j *RequestJar) Cookies() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*http.Cookie
	seen := map[string]bool{}
	for _, c := range j.r.Cookies() {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if p, ok := j.pending[c.Name]; ok {
			if p.MaxAge >= 0 {
				out = append(out, p)
			}
			continue
		}
		out = append(out, c)
	}
	for name, p := range j.pending {
		if !seen[name] && p.MaxAge >= 0 {
			out = append(out, p)
		}
	}
	return out
}

func (j *RequestJar) SetCookies(cookies ...*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		j.pending[c.Name] = c
		http.SetCookie(j.w, c)
	}
}

// MemoryJar is a Jar held in memory.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]*http.Cookie
	order   []string
	writes  []*http.Cookie
}

var _ Jar = (*MemoryJar)(nil)

func NewMemoryJar(cookies ...*http.Cookie) *MemoryJar {
	j := &MemoryJar{cookies: map[string]*http.Cookie{}}
	for _, c := range cookies {
		j.put(c)
	}
	return j
}

func (j *MemoryJar) Cookies() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*http.Cookie, 0, len(j.order))
	for _, name := range j.order {
		out = append(out, j.cookies[name])
	}
	return out
}

func (j *MemoryJar) SetCookies(cookies ...*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		j.writes = append(j.writes, c)
		if c.MaxAge < 0 {
			j.remove(c.Name)
			continue
		}
		j.put(c)
	}
}

// Writes returns every cookie written to the jar, deletions included.
func (j *MemoryJar) Writes() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*http.Cookie(nil), j.writes...)
}

func (j *MemoryJar) put(c *http.Cookie) {
	if _, ok := j.cookies[c.Name]; !ok {
		j.order = append(j.order, c.Name)
	}
	j.cookies[c.Name] = c
}

func (j *MemoryJar) remove(name string) {
	if _, ok := j.cookies[name]; !ok {
		return
	}
	delete(j.cookies, name)
	for i, n := range j.order {
		if n == name {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}
