// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/govportal/authgate/internal/audit"
)

type recordedEvent struct {
	event    string
	severity audit.Severity
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) Record(event string, severity audit.Severity, status audit.Status, details map[string]interface{}, reqCtx *audit.RequestContext) (int64, error) {
	f.events = append(f.events, recordedEvent{event: event, severity: severity})
	return int64(len(f.events)), nil
}

func newTestGatekeeper(t *testing.T, production bool) (*Gatekeeper, *fakeRecorder) {
	t.Helper()

	hosts, err := NewWhitelist(
		[]string{"cid.tspolice.gov.in", "localhost"},
		[]string{`^[a-z0-9-]+\.tspolice\.gov\.in$`},
	)
	if err != nil {
		t.Fatalf("NewWhitelist failed: %v", err)
	}

	origins, err := NewWhitelist(
		[]string{"https://cid.tspolice.gov.in", "http://localhost:3000"},
		[]string{`^https://[a-z0-9-]+\.tspolice\.gov\.in$`},
	)
	if err != nil {
		t.Fatalf("NewWhitelist failed: %v", err)
	}

	rec := &fakeRecorder{}
	gk := New(Config{
		HostWhitelist:   hosts,
		OriginWhitelist: origins,
		Inspector:       NewConnectionSecurityInspector(true),
		Production:      production,
	}, rec)

	return gk, rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWhitelistMatch(t *testing.T) {
	w, err := NewWhitelist(
		[]string{"Example.GOV", "localhost"},
		[]string{`^[a-z0-9-]+\.example\.gov$`},
	)
	if err != nil {
		t.Fatalf("NewWhitelist failed: %v", err)
	}

	tests := []struct {
		value    string
		expected bool
	}{
		{"example.gov", true},
		{"EXAMPLE.GOV", true},
		{"localhost", true},
		{"sub.example.gov", true},
		{"deep-sub.example.gov", true},
		{"evil.example.com", false},
		{"example.gov.evil.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := w.Match(tt.value); got != tt.expected {
				t.Errorf("Match(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestWhitelistRejectsBadPattern(t *testing.T) {
	if _, err := NewWhitelist(nil, []string{"["}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestValidateHost(t *testing.T) {
	gk, rec := newTestGatekeeper(t, true)
	handler := gk.ValidateHost(okHandler())

	tests := []struct {
		name       string
		host       string
		forwarded  string
		wantStatus int
	}{
		{"trusted exact", "cid.tspolice.gov.in", "", http.StatusOK},
		{"trusted with port", "cid.tspolice.gov.in:443", "", http.StatusOK},
		{"trusted pattern", "intranet.tspolice.gov.in", "", http.StatusOK},
		{"untrusted host", "evil.example.com", "", http.StatusForbidden},
		{"malformed host", "evil_host!", "", http.StatusForbidden},
		{"forwarded equals host", "cid.tspolice.gov.in", "cid.tspolice.gov.in", http.StatusOK},
		{"forwarded untrusted", "cid.tspolice.gov.in", "evil.example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			r.Host = tt.host
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-Host", tt.forwarded)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if !strings.Contains(w.Body.String(), "UNTRUSTED_HOST") {
					t.Errorf("expected UNTRUSTED_HOST code, got %s", w.Body.String())
				}
			}
		})
	}

	if len(rec.events) == 0 {
		t.Error("expected host rejections to reach the audit recorder")
	}
	for _, e := range rec.events {
		if e.severity != audit.SeverityHigh {
			t.Errorf("expected HIGH severity, got %s", e.severity)
		}
	}
}

func TestFilterMethods(t *testing.T) {
	gk, _ := newTestGatekeeper(t, true)
	handler := gk.FilterMethods(okHandler())

	tests := []struct {
		method     string
		origin     string
		wantStatus int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPost, "", http.StatusOK},
		{http.MethodPut, "", http.StatusOK},
		{http.MethodDelete, "", http.StatusOK},
		{http.MethodPatch, "", http.StatusOK},
		{http.MethodHead, "", http.StatusOK},
		{"TRACE", "", http.StatusMethodNotAllowed},
		{"TRACK", "", http.StatusMethodNotAllowed},
		{"CONNECT", "", http.StatusMethodNotAllowed},
		{http.MethodOptions, "", http.StatusMethodNotAllowed},
		{http.MethodOptions, "https://cid.tspolice.gov.in", http.StatusOK},
	}

	for _, tt := range tests {
		name := tt.method
		if tt.origin != "" {
			name += " with origin"
		}
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/captcha", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("%s: status = %d, want %d", tt.method, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireSecure(t *testing.T) {
	gk, _ := newTestGatekeeper(t, true)
	handler := gk.RequireSecure(okHandler())

	t.Run("plain http rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		if !strings.Contains(w.Body.String(), "HTTPS_REQUIRED") {
			t.Errorf("expected HTTPS_REQUIRED code, got %s", w.Body.String())
		}
	})

	t.Run("proxy https accepted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("development override", func(t *testing.T) {
		dev, _ := newTestGatekeeper(t, false)
		dev.config.AllowHTTPSessions = true
		h := dev.RequireSecure(okHandler())

		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestRequireOrigin(t *testing.T) {
	t.Run("production requires origin", func(t *testing.T) {
		gk, _ := newTestGatekeeper(t, true)
		handler := gk.RequireOrigin(okHandler())

		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("development tolerates missing origin", func(t *testing.T) {
		gk, _ := newTestGatekeeper(t, false)
		handler := gk.RequireOrigin(okHandler())

		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestOriginAllowed(t *testing.T) {
	gk, _ := newTestGatekeeper(t, true)
	r := httptest.NewRequest(http.MethodGet, "/api/captcha", nil)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"whitelisted https", "https://cid.tspolice.gov.in", true},
		{"pattern subdomain", "https://portal.tspolice.gov.in", true},
		{"localhost http allowed", "http://localhost:3000", true},
		{"insecure origin in production", "http://cid.tspolice.gov.in", false},
		{"unknown origin", "https://evil.example.com", false},
		{"empty origin", "", false},
		{"garbage origin", "not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gk.originAllowed(r, tt.origin); got != tt.expected {
				t.Errorf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.expected)
			}
		})
	}
}

func TestCORSNeverWildcard(t *testing.T) {
	gk, _ := newTestGatekeeper(t, true)
	handler := gk.CORS()(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/captcha", nil)
	r.Header.Set("Origin", "https://cid.tspolice.gov.in")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	got := w.Header().Get("Access-Control-Allow-Origin")
	if got == "*" {
		t.Error("allow-origin must never be a wildcard")
	}
	if got != "https://cid.tspolice.gov.in" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
}

func TestConnectionSecurityInspector(t *testing.T) {
	tests := []struct {
		name     string
		trust    bool
		header   string
		value    string
		expected bool
	}{
		{"plain http", true, "", "", false},
		{"x-forwarded-proto https", true, "X-Forwarded-Proto", "https", true},
		{"x-forwarded-proto http", true, "X-Forwarded-Proto", "http", false},
		{"x-forwarded-ssl on", true, "X-Forwarded-Ssl", "on", true},
		{"front-end-https on", true, "Front-End-Https", "on", true},
		{"untrusted proxy headers ignored", false, "X-Forwarded-Proto", "https", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := NewConnectionSecurityInspector(tt.trust)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			if got := i.IsSecure(r); got != tt.expected {
				t.Errorf("IsSecure() = %v, want %v", got, tt.expected)
			}
		})
	}
}
