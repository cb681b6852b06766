// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"net/http"
	"time"
)

// SecurityInspector reports whether a request arrived over a secure
// connection. Satisfied by gatekeeper.ConnectionSecurityInspector.
type SecurityInspector interface {
	IsSecure(r *http.Request) bool
}

// CookiePolicy writes and clears the session cookie with consistent
// attributes. The Secure flag follows the actual connection: claiming Secure
// on plain HTTP makes the browser silently drop the cookie.
type CookiePolicy struct {
	Name          string
	Path          string
	Domain        string
	SameSite      http.SameSite
	AllowInsecure bool
	Inspector     SecurityInspector
}

// ParseSameSite maps a config string to its http.SameSite value, defaulting
// to Lax.
func ParseSameSite(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (p *CookiePolicy) secure(r *http.Request) bool {
	if p.AllowInsecure {
		return false
	}
	return p.Inspector.IsSecure(r)
}

// Write sets the session cookie. maxAge bounds the cookie lifetime; the
// server-side inactivity timeout remains authoritative.
func (p *CookiePolicy) Write(w http.ResponseWriter, r *http.Request, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    sessionID,
		Path:     p.Path,
		Domain:   p.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.secure(r),
		SameSite: p.SameSite,
	})
}

// Clear expires the session cookie. Attributes must match Write's or the
// browser treats it as a different cookie and keeps the original.
func (p *CookiePolicy) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     p.Path,
		Domain:   p.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure(r),
		SameSite: p.SameSite,
	})
}

// Read returns the session id from the request cookie, or "" when absent.
func (p *CookiePolicy) Read(r *http.Request) string {
	c, err := r.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
