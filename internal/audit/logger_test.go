// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newRequest(t *testing.T, remote, xff, xreal string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	r.RemoteAddr = remote
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	if xreal != "" {
		r.Header.Set("X-Real-IP", xreal)
	}
	return r
}

func newTestLogger(t *testing.T) *Logger {
	t.Helper()

	cfg := DefaultConfig(t.TempDir())
	cfg.Alert = func(*Entry) {}

	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAssignsIncreasingSequence(t *testing.T) {
	l := newTestLogger(t)

	first, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, nil)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	second, err := l.Record(EventLoginSuccess, SeverityLow, StatusSuccess, nil, nil)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if second <= first {
		t.Errorf("expected increasing sequence, got %d then %d", first, second)
	}
}

func TestSequenceMonotonicAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Alert = func(*Entry) {}

	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var last int64
	for i := 0; i < 5; i++ {
		last, err = l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, nil)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Simulated restart: a fresh logger loads the persisted counter.
	restarted, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger after restart failed: %v", err)
	}
	defer restarted.Close()

	next, err := restarted.Record(EventLoginSuccess, SeverityLow, StatusSuccess, nil, nil)
	if err != nil {
		t.Fatalf("Record after restart failed: %v", err)
	}
	if next <= last {
		t.Errorf("sequence after restart must exceed %d, got %d", last, next)
	}
}

func TestHighSeverityDuplicatedToSecurityLog(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Alert = func(*Entry) {}

	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventUntrustedHost, SeverityHigh, StatusFailure, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	secData, err := os.ReadFile(filepath.Join(dir, securityLogName))
	if err != nil {
		t.Fatalf("failed to read security log: %v", err)
	}
	if strings.Contains(string(secData), EventLoginFailure) {
		t.Error("LOW severity entry must not reach security.log")
	}
	if !strings.Contains(string(secData), EventUntrustedHost) {
		t.Error("HIGH severity entry missing from security.log")
	}

	auditData, err := os.ReadFile(filepath.Join(dir, auditLogName))
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if !strings.Contains(string(auditData), EventLoginFailure) ||
		!strings.Contains(string(auditData), EventUntrustedHost) {
		t.Error("audit.log must contain every entry")
	}
}

func TestCriticalTriggersAlert(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	var alerted []string
	cfg.Alert = func(e *Entry) { alerted = append(alerted, e.Event) }

	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	if _, err := l.Record(EventUntrustedHost, SeverityHigh, StatusFailure, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventSessionReplay, SeverityCritical, StatusFailure, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(alerted) != 1 || alerted[0] != EventSessionReplay {
		t.Errorf("expected exactly the CRITICAL entry to alert, got %v", alerted)
	}
}

func TestRotationRetainsBoundedCount(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Alert = func(*Entry) {}
	cfg.MaxFileSize = 200 // rotate nearly every entry
	cfg.MaxRotations = 2

	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	details := map[string]interface{}{"padding": strings.Repeat("x", 128)}
	for i := 0; i < 10; i++ {
		if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, details, nil); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	rotated, err := filepath.Glob(filepath.Join(dir, "audit-*.log"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(rotated) > cfg.MaxRotations {
		t.Errorf("expected at most %d rotated files, got %d", cfg.MaxRotations, len(rotated))
	}
	if len(rotated) == 0 {
		t.Error("expected rotation to have occurred")
	}
}

func TestQueryFilters(t *testing.T) {
	l := newTestLogger(t)

	reqCtx := &RequestContext{IP: "192.0.2.1", Username: "mallory"}
	if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, reqCtx); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventLoginSuccess, SeverityLow, StatusSuccess, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventSessionReplay, SeverityCritical, StatusFailure, nil, reqCtx); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got := l.Query(QueryFilter{Username: "mallory", Limit: 10})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for mallory, got %d", len(got))
	}
	// Newest first.
	if got[0].Event != EventSessionReplay {
		t.Errorf("expected newest entry first, got %s", got[0].Event)
	}

	high := l.Query(QueryFilter{MinSeverity: SeverityHigh, Limit: 10})
	if len(high) != 1 || high[0].Event != EventSessionReplay {
		t.Errorf("expected only the CRITICAL entry at >=HIGH, got %v", high)
	}

	if n := l.Count(QueryFilter{Statuses: []Status{StatusFailure}}); n != 2 {
		t.Errorf("expected 2 failures, got %d", n)
	}
}

func TestSummarize(t *testing.T) {
	l := newTestLogger(t)

	for i := 0; i < 3; i++ {
		mallory := &RequestContext{Username: "mallory"}
		if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, mallory); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	alice := &RequestContext{Username: "alice"}
	if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, alice); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventLoginSuccess, SeverityLow, StatusSuccess, nil, alice); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := l.Record(EventAccountLockout, SeverityHigh, StatusWarning, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	now := time.Now().UTC()
	summary := l.Summarize(now.Add(-time.Hour), now.Add(time.Hour))

	if summary.LoginFailure != 4 {
		t.Errorf("expected 4 login failures, got %d", summary.LoginFailure)
	}
	if summary.LoginSuccess != 1 {
		t.Errorf("expected 1 login success, got %d", summary.LoginSuccess)
	}
	if summary.Lockouts != 1 {
		t.Errorf("expected 1 lockout, got %d", summary.Lockouts)
	}
	if len(summary.TopFailing) == 0 || summary.TopFailing[0].Username != "mallory" {
		t.Errorf("expected mallory as top failing identifier, got %v", summary.TopFailing)
	}
}

func TestWriteReport(t *testing.T) {
	l := newTestLogger(t)

	if _, err := l.Record(EventLoginFailure, SeverityLow, StatusFailure, nil, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	path, err := l.WriteReport(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "login_failure") {
		t.Errorf("report missing aggregation, got: %s", data)
	}
}

func TestExportCEF(t *testing.T) {
	entries := []Entry{
		{
			Seq:       7,
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Event:     EventSessionReplay,
			Severity:  SeverityCritical,
			Status:    StatusFailure,
			IP:        "203.0.113.9",
			Username:  "mallory",
			Method:    "GET",
			URL:       "/api/auth/user",
		},
	}

	var buf bytes.Buffer
	if err := ExportCEF(&buf, entries); err != nil {
		t.Fatalf("ExportCEF failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "CEF:0|Authgate|authgate|1.0|session_replay_blocked|") {
		t.Errorf("unexpected CEF header: %s", out)
	}
	if !strings.Contains(out, "|10|") {
		t.Errorf("CRITICAL should map to CEF severity 10: %s", out)
	}
	if !strings.Contains(out, "src=203.0.113.9") || !strings.Contains(out, "suser=mallory") {
		t.Errorf("missing CEF extensions: %s", out)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		xff      string
		xreal    string
		expected string
	}{
		{"remote addr with port", "198.51.100.4:8443", "", "", "198.51.100.4"},
		{"x-forwarded-for single", "10.0.0.1:1234", "203.0.113.7", "", "203.0.113.7"},
		{"x-forwarded-for chain", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "", "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:1234", "", "203.0.113.8", "203.0.113.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRequest(t, tt.remote, tt.xff, tt.xreal)
			if got := ClientIP(r); got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}
