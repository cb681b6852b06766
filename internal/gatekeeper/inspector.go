// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"net/http"
	"strings"
)

// ConnectionSecurityInspector is the single source of truth for whether a
// request arrived over a secure channel. Every call site that needs a
// secure/insecure determination (HTTPS enforcement, the cookie Secure flag)
// goes through this type so the checks cannot drift apart.
type ConnectionSecurityInspector struct {
	// trustProxyHeaders enables X-Forwarded-Proto and related proxy
	// signals. Only set this when the server sits behind a proxy that
	// strips client-supplied copies of those headers.
	trustProxyHeaders bool
}

// NewConnectionSecurityInspector creates an inspector.
func NewConnectionSecurityInspector(trustProxyHeaders bool) *ConnectionSecurityInspector {
	return &ConnectionSecurityInspector{trustProxyHeaders: trustProxyHeaders}
}

// IsSecure reports whether the request is served over TLS, either directly
// or via a trusted proxy signal.
func (i *ConnectionSecurityInspector) IsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	if !i.trustProxyHeaders {
		return false
	}

	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Ssl"), "on") {
		return true
	}
	if strings.EqualFold(r.Header.Get("Front-End-Https"), "on") {
		return true
	}

	return false
}
