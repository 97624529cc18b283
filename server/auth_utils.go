package server

import (
	"net/http"
	"net/url"
	"strings"
)

// returnTo is the absolute URL the auth service sends the browser back to.
// For htmx requests that is the page the fragment belongs to.
func (s *Server) returnTo(r *http.Request) string {
	if current := r.Header.Get("HX-Current-URL"); current != "" && s.isOwnURL(current) {
		return current
	}
	return s.config.GetBaseURL() + r.URL.RequestURI()
}

func (s *Server) isOwnURL(raw string) bool {
	return raw == s.config.GetBaseURL() || strings.HasPrefix(raw, s.config.GetBaseURL()+"/")
}

// redirectToLogin sends the browser to the auth service's login entry point.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectSuccess(w, r, s.services.Gate.URLs().Login(s.returnTo(r)))
}

// safeNextPath accepts only local absolute paths, falling back to the default return path.
func (s *Server) safeNextPath(next string) string {
	u, err := url.Parse(next)
	if next == "" || err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(next, "//") {
		return s.config.GetDefaultReturnPath()
	}
	return u.RequestURI()
}

// redirectSuccess helper for htmx-aware redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
