// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// rank orders severities for comparison. Unknown severities rank lowest.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is at or above the given severity.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// Status indicates the outcome of the audited operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusWarning Status = "WARNING"
	StatusInfo    Status = "INFO"
)

// Common event names. Handlers may record ad hoc names; these cover the
// decisions the engine itself emits.
const (
	EventLoginSuccess        = "login_success"
	EventLoginFailure        = "login_failure"
	EventLogout              = "logout"
	EventRegister            = "register"
	EventSessionCreated      = "session_created"
	EventSessionExpired      = "session_expired"
	EventSessionReplay       = "session_replay_blocked"
	EventSessionHijack       = "session_binding_mismatch"
	EventAccountLockout      = "account_lockout"
	EventAccountUnlock       = "account_unlock"
	EventUntrustedHost       = "untrusted_host"
	EventBlockedMethod       = "blocked_method"
	EventInsecureTransport   = "insecure_transport"
	EventCORSRejected        = "cors_origin_rejected"
	EventCaptchaIssued       = "captcha_issued"
	EventCaptchaFailed       = "captcha_failed"
	EventCaptchaRateLimited  = "captcha_rate_limited"
	EventNonceReplay         = "credential_nonce_replay"
	EventCredentialExpired   = "credential_expired"
	EventDecryptionFailed    = "credential_decryption_failed"
	EventPlaintextCredential = "plaintext_credential_accepted"
	EventUploadRejected      = "upload_rejected"
	EventUploadAccepted      = "upload_accepted"
	EventAdminAction         = "admin_action"
)

// Entry is an immutable record of a security-relevant decision.
// Sequence numbers never repeat or go backward, even across restarts.
type Entry struct {
	Seq       int64                  `json:"seq"`
	Timestamp time.Time              `json:"timestamp"`
	Event     string                 `json:"event"`
	Severity  Severity               `json:"severity"`
	Status    Status                 `json:"status"`
	IP        string                 `json:"ip,omitempty"`
	Username  string                 `json:"username,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Method    string                 `json:"method,omitempty"`
	URL       string                 `json:"url,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// RequestContext carries the request attribution attached to an entry.
type RequestContext struct {
	IP        string
	Username  string
	SessionID string
	Method    string
	URL       string
	UserAgent string
}

// ContextFromRequest builds a RequestContext from an HTTP request.
// Username and session id are optional and may be empty.
func ContextFromRequest(r *http.Request, username, sessionID string) *RequestContext {
	if r == nil {
		return &RequestContext{Username: username, SessionID: sessionID}
	}

	return &RequestContext{
		IP:        ClientIP(r),
		Username:  username,
		SessionID: sessionID,
		Method:    r.Method,
		URL:       r.URL.RequestURI(),
		UserAgent: r.UserAgent(),
	}
}

// ClientIP extracts the originating client IP, preferring X-Forwarded-For
// (first hop) and X-Real-IP over RemoteAddr.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			first = forwarded[:idx]
		}
		return strings.TrimSpace(first)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Events filters by event names.
	Events []string `json:"events,omitempty"`

	// MinSeverity includes only entries at or above this severity.
	MinSeverity Severity `json:"min_severity,omitempty"`

	// Statuses filters by status.
	Statuses []Status `json:"statuses,omitempty"`

	// Username filters by exact username.
	Username string `json:"username,omitempty"`

	// IP filters by exact client IP.
	IP string `json:"ip,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// Matches reports whether the entry satisfies the filter (ignoring
// Limit/Offset, which the store applies).
func (f *QueryFilter) Matches(e *Entry) bool {
	if len(f.Events) > 0 {
		found := false
		for _, name := range f.Events {
			if e.Event == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.MinSeverity != "" && !e.Severity.AtLeast(f.MinSeverity) {
		return false
	}

	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if e.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Username != "" && e.Username != f.Username {
		return false
	}
	if f.IP != "" && e.IP != f.IP {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}

	return true
}
