// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc", "***"},
		{"exactly 12", "123456789012", "***"},
		{"long token", "abcdefghijklmnop", "abcd...mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{"empty", "", ""},
		{"single char", "a", "***"},
		{"two chars", "ab", "***"},
		{"normal", "johndoe", "jo***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUsername(tt.username); got != tt.expected {
				t.Errorf("SanitizeUsername(%q) = %q, want %q", tt.username, got, tt.expected)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"empty", "", ""},
		{"no at sign", "notanemail", "***"},
		{"short local part", "ab@example.com", "***@example.com"},
		{"normal", "john.doe@example.com", "jo***@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeEmail(tt.email); got != tt.expected {
				t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      string
		expected string
	}{
		{"plain error", "connection refused", "connection refused"},
		{"contains password", "invalid password for user", "authentication error"},
		{"contains token", "token expired at 2026-01-01", "authentication error"},
		{"contains cookie", "missing Cookie header", "authentication error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeError(tt.err); got != tt.expected {
				t.Errorf("SanitizeError(%q) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"sensitive nonce key", "nonce", "abcdefghijklmnop", "abcd...mnop"},
		{"sensitive captcha key", "captcha", "short", "***"},
		{"email-like value", "contact", "john.doe@example.com", "jo***@example.com"},
		{"plain value", "host", "example.com", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeValue(tt.key, tt.value); got != tt.expected {
				t.Errorf("SanitizeValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestSecurityLoggerSanitizesSessionID(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	sessionID := "0123456789abcdef0123456789abcdef"
	sl.LogLoginSuccess("johndoe", sessionID, "192.0.2.10", "test-agent")

	out := buf.String()
	if strings.Contains(out, sessionID) {
		t.Error("full session ID leaked into log output")
	}
	if !strings.Contains(out, "0123...cdef") {
		t.Errorf("expected masked session ID in output, got: %s", out)
	}
	if strings.Contains(out, "johndoe") {
		t.Error("full username leaked into log output")
	}
	if !strings.Contains(out, "login_success") {
		t.Errorf("expected event name in output, got: %s", out)
	}
}

func TestSecurityLoggerReplayBlocked(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	sl.LogSessionReplayBlocked("ffffeeee11112222333344445555", "203.0.113.5", "curl/8.0")

	out := buf.String()
	if !strings.Contains(out, "session_replay_blocked") {
		t.Errorf("expected session_replay_blocked event, got: %s", out)
	}
	if !strings.Contains(out, `"status":"failed"`) {
		t.Errorf("expected failed status, got: %s", out)
	}
	if strings.Contains(out, "ffffeeee11112222333344445555") {
		t.Error("full session ID leaked into replay log")
	}
}

func TestSecurityLoggerUntrustedHost(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	sl.LogUntrustedHost("evil.example.org", "198.51.100.7", "/api/login")

	out := buf.String()
	if !strings.Contains(out, "untrusted_host") {
		t.Errorf("expected untrusted_host event, got: %s", out)
	}
	if !strings.Contains(out, "evil.example.org") {
		t.Errorf("expected host in output, got: %s", out)
	}
}
