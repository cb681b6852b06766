// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"

	"github.com/govportal/authgate/internal/audit"
)

// CORS returns a go-chi/cors middleware whose origin decision is backed by
// the shared origin whitelist. The response never carries a wildcard
// allow-origin: only origins the whitelist accepts are echoed back.
func (g *Gatekeeper) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  g.originAllowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Warning"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

// originAllowed validates one Origin value. In production, non-HTTPS origins
// are rejected except for localhost.
func (g *Gatekeeper) originAllowed(r *http.Request, origin string) bool {
	if origin == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if g.config.Production && u.Scheme != "https" && !isLocalhost(u.Hostname()) {
		g.record(audit.EventCORSRejected, audit.SeverityHigh, r, map[string]interface{}{
			"origin": origin,
			"reason": "insecure_scheme",
		})
		rejectionsTotal.WithLabelValues("cors_insecure_origin").Inc()
		return false
	}

	if g.config.OriginWhitelist.Match(origin) {
		return true
	}

	g.record(audit.EventCORSRejected, audit.SeverityHigh, r, map[string]interface{}{
		"origin": origin,
		"reason": "not_whitelisted",
	})
	rejectionsTotal.WithLabelValues("cors_origin").Inc()
	return false
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}
