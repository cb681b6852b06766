// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/logging"
)

// Recorder receives gatekeeper decisions for the audit trail. The audit
// package does not depend back on this one; the dependency points one way.
type Recorder interface {
	Record(event string, severity audit.Severity, status audit.Status, details map[string]interface{}, reqCtx *audit.RequestContext) (int64, error)
}

// hostCharsetPattern restricts Host headers to hostname-safe characters with
// an optional port.
var hostCharsetPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+(:[0-9]+)?$`)

// Config holds the gatekeeper policy inputs.
type Config struct {
	// HostWhitelist allows Host / X-Forwarded-Host / X-Real-Host values.
	HostWhitelist *Whitelist

	// OriginWhitelist allows CORS Origin values. Shared with the CORS
	// middleware so host and origin policy cannot drift.
	OriginWhitelist *Whitelist

	// Inspector decides whether a request arrived over a secure channel.
	Inspector *ConnectionSecurityInspector

	// Production tightens policy: HTTPS-only origins (except localhost)
	// and mandatory Origin headers on credential endpoints.
	Production bool

	// AllowHTTPSessions disables HTTPS enforcement on credential
	// endpoints. Development override only.
	AllowHTTPSessions bool
}

// Gatekeeper applies the pre-business-logic request checks: host validation,
// method filtering, HTTPS enforcement, and CORS origin validation.
type Gatekeeper struct {
	config   Config
	recorder Recorder
	secLog   *logging.SecurityLogger
}

// New creates a Gatekeeper. The recorder may be nil in tests.
func New(config Config, recorder Recorder) *Gatekeeper {
	return &Gatekeeper{
		config:   config,
		recorder: recorder,
		secLog:   logging.NewSecurityLogger(),
	}
}

// Inspector exposes the connection security inspector so the session cookie
// policy uses the same secure/insecure determination as HTTPS enforcement.
func (g *Gatekeeper) Inspector() *ConnectionSecurityInspector {
	return g.config.Inspector
}

// ValidateHost rejects requests whose Host, X-Forwarded-Host, or X-Real-Host
// header is absent, malformed, or not whitelisted. Forwarded host headers
// must either match the whitelist or equal the Host header, which blocks
// host-header-injection cache or reset-link poisoning.
func (g *Gatekeeper) ValidateHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if !g.hostAllowed(host) {
			g.rejectHost(w, r, host, "host")
			return
		}

		for _, header := range []string{"X-Forwarded-Host", "X-Real-Host"} {
			forwarded := r.Header.Get(header)
			if forwarded == "" {
				continue
			}
			if !strings.EqualFold(forwarded, host) && !g.hostAllowed(forwarded) {
				g.rejectHost(w, r, forwarded, strings.ToLower(header))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// hostAllowed checks charset and whitelist membership for one host value.
func (g *Gatekeeper) hostAllowed(host string) bool {
	if host == "" {
		return false
	}
	if !hostCharsetPattern.MatchString(host) && !strings.Contains(strings.ToLower(host), "localhost") {
		return false
	}

	bare := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		bare = h
	}

	return g.config.HostWhitelist.Match(bare) || g.config.HostWhitelist.Match(host)
}

func (g *Gatekeeper) rejectHost(w http.ResponseWriter, r *http.Request, host, source string) {
	g.secLog.LogUntrustedHost(host, audit.ClientIP(r), r.URL.Path)
	g.record(audit.EventUntrustedHost, audit.SeverityHigh, r, map[string]interface{}{
		"host":   host,
		"source": source,
	})
	rejectionsTotal.WithLabelValues("untrusted_host").Inc()
	writeError(w, http.StatusForbidden, "UNTRUSTED_HOST", "Host not allowed")
}

// FilterMethods rejects TRACE, TRACK, and CONNECT outright, and allows
// OPTIONS only when it carries an Origin header (a CORS preflight).
func (g *Gatekeeper) FilterMethods(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodHead:
			next.ServeHTTP(w, r)
			return
		case http.MethodOptions:
			if r.Header.Get("Origin") != "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		g.record(audit.EventBlockedMethod, audit.SeverityHigh, r, map[string]interface{}{
			"method": r.Method,
		})
		rejectionsTotal.WithLabelValues("blocked_method").Inc()
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
}

// RequireSecure enforces HTTPS on credential-bearing endpoints. Plain HTTP is
// rejected unless the development override is set.
func (g *Gatekeeper) RequireSecure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.config.AllowHTTPSessions || g.config.Inspector.IsSecure(r) {
			next.ServeHTTP(w, r)
			return
		}

		g.record(audit.EventInsecureTransport, audit.SeverityHigh, r, map[string]interface{}{
			"path": r.URL.Path,
		})
		rejectionsTotal.WithLabelValues("insecure_transport").Inc()
		writeError(w, http.StatusForbidden, "HTTPS_REQUIRED", "This endpoint requires HTTPS")
	})
}

// RequireOrigin rejects browserless requests to credential endpoints in
// production: a missing Origin header is only tolerated in development.
func (g *Gatekeeper) RequireOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.config.Production || r.Header.Get("Origin") != "" {
			next.ServeHTTP(w, r)
			return
		}

		g.record(audit.EventCORSRejected, audit.SeverityHigh, r, map[string]interface{}{
			"reason": "missing_origin",
		})
		rejectionsTotal.WithLabelValues("missing_origin").Inc()
		writeError(w, http.StatusForbidden, "ORIGIN_REQUIRED", "Origin header required")
	})
}

// record emits an audit entry when a recorder is wired.
func (g *Gatekeeper) record(event string, severity audit.Severity, r *http.Request, details map[string]interface{}) {
	if g.recorder == nil {
		return
	}
	if _, err := g.recorder.Record(event, severity, audit.StatusFailure, details, audit.ContextFromRequest(r, "", "")); err != nil {
		logging.Error().Err(err).Str("event", event).Msg("Failed to record gatekeeper audit entry")
	}
}

// errorResponse is the structured rejection body. Code is stable and
// machine-readable so clients can branch without parsing prose.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write failures are unactionable here
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
