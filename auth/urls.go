package auth

import (
	"net/url"
	"strings"
)

// DenialReason names the external auth entry point a denied request is sent to.
type DenialReason string

const (
	ReasonLogin          DenialReason = "login"
	ReasonAccessDenied   DenialReason = "access-denied"
	ReasonSessionExpired DenialReason = "session-expired"
)

// URLs builds links to the external auth service.
type URLs struct {
	authBaseURL string
}

func NewURLs(authBaseURL string) URLs {
	return URLs{authBaseURL: strings.TrimRight(authBaseURL, "/")}
}

// For returns the entry point for reason carrying returnTo as redirect_to.
func (u URLs) For(reason DenialReason, returnTo string) string {
	target := u.authBaseURL + "/" + string(reason)
	if returnTo == "" {
		return target
	}
	return target + "?" + url.Values{"redirect_to": {returnTo}}.Encode()
}

func (u URLs) Login(returnTo string) string {
	return u.For(ReasonLogin, returnTo)
}

func (u URLs) AccessDenied(returnTo string) string {
	return u.For(ReasonAccessDenied, returnTo)
}

func (u URLs) SessionExpired(returnTo string) string {
	return u.For(ReasonSessionExpired, returnTo)
}
