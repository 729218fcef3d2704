package auth

import (
	"net/http"
	"strings"

	"carehub/internal/core/security"
)

// DefaultSessionCookie is the cookie name used when none is configured.
const DefaultSessionCookie = "carehub_session"

// CredentialFromRequest extracts the bearer token and session cookie from r.
// A malformed Authorization header yields no bearer token.
func CredentialFromRequest(r *http.Request, cookieName string) security.Credential {
	var cred security.Credential

	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			cred.Bearer = strings.TrimSpace(parts[1])
		}
	}

	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		cred.Session = cookie.Value
	}

	return cred
}
