// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Session.Timeout != 20*time.Minute {
		t.Errorf("expected 20m session timeout, got %v", cfg.Session.Timeout)
	}
	if cfg.Session.BlacklistRetention != 24*time.Hour {
		t.Errorf("expected 24h blacklist retention, got %v", cfg.Session.BlacklistRetention)
	}
	if cfg.Session.CookieName != "cid.session.id" {
		t.Errorf("expected cid.session.id cookie name, got %q", cfg.Session.CookieName)
	}
	if cfg.Captcha.MaxAttempts != 3 {
		t.Errorf("expected 3 captcha attempts, got %d", cfg.Captcha.MaxAttempts)
	}
	if cfg.Captcha.Expiry != 3*time.Minute {
		t.Errorf("expected 3m captcha expiry, got %v", cfg.Captcha.Expiry)
	}
	if cfg.Lockout.Threshold != 5 {
		t.Errorf("expected lockout threshold 5, got %d", cfg.Lockout.Threshold)
	}
	if cfg.Lockout.Duration != 15*time.Minute {
		t.Errorf("expected 15m lockout duration, got %v", cfg.Lockout.Duration)
	}
	if cfg.Credential.MaxAge != 5*time.Minute {
		t.Errorf("expected 5m credential max age, got %v", cfg.Credential.MaxAge)
	}
	if cfg.Password.Iterations != 120000 {
		t.Errorf("expected 120000 iterations, got %d", cfg.Password.Iterations)
	}
}

func TestValidateRejectsWildcardCORS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.CORSAllowedOrigins = []string{"*"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for wildcard CORS origin")
	}
	if !strings.Contains(err.Error(), "wildcard") {
		t.Errorf("expected wildcard error, got: %v", err)
	}
}

func TestValidateRejectsInsecureProduction(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http sessions in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Session.Secret = strings.Repeat("s", 32)
			c.Security.AllowHTTPSessions = true
		}},
		{"insecure cookies in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Session.Secret = strings.Repeat("s", 32)
			c.Session.AllowInsecureCookies = true
		}},
		{"missing session secret in production", func(c *Config) {
			c.Server.Environment = "production"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }},
		{"short session secret", func(c *Config) { c.Session.Secret = "short" }},
		{"bad session store", func(c *Config) { c.Session.Store = "redis" }},
		{"badger without path", func(c *Config) {
			c.Session.Store = "badger"
			c.Session.StorePath = ""
		}},
		{"bad samesite", func(c *Config) { c.Session.CookieSameSite = "sometimes" }},
		{"warning window exceeds timeout", func(c *Config) {
			c.Session.WarningWindow = c.Session.Timeout
		}},
		{"weak iterations", func(c *Config) { c.Password.Iterations = 1000 }},
		{"bad host pattern", func(c *Config) {
			c.Security.TrustedHostPatterns = []string{"["}
		}},
		{"bad strict binding", func(c *Config) { c.Session.StrictBinding = "maybe" }},
		{"zero lockout threshold", func(c *Config) { c.Lockout.Threshold = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadWithLegacyEnvVars(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.Repeat("x", 32))
	t.Setenv("TRUSTED_HOSTS", "cid.example.gov.in, portal.example.gov.in")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://cid.example.gov.in")
	t.Setenv("COOKIE_SAMESITE", "strict")
	t.Setenv("COOKIE_DOMAIN", ".example.gov.in")
	t.Setenv("ENABLE_PASSWORD_ENCRYPTION", "false")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.Secret != strings.Repeat("x", 32) {
		t.Error("SESSION_SECRET not applied")
	}

	wantHosts := []string{"cid.example.gov.in", "portal.example.gov.in"}
	if len(cfg.Security.TrustedHosts) != len(wantHosts) {
		t.Fatalf("expected %d trusted hosts, got %v", len(wantHosts), cfg.Security.TrustedHosts)
	}
	for i, h := range wantHosts {
		if cfg.Security.TrustedHosts[i] != h {
			t.Errorf("trusted host %d: got %q, want %q", i, cfg.Security.TrustedHosts[i], h)
		}
	}

	if cfg.Session.CookieSameSite != "strict" {
		t.Errorf("COOKIE_SAMESITE not applied, got %q", cfg.Session.CookieSameSite)
	}
	if cfg.Session.CookieDomain != ".example.gov.in" {
		t.Errorf("COOKIE_DOMAIN not applied, got %q", cfg.Session.CookieDomain)
	}
	if cfg.Credential.Enabled {
		t.Error("ENABLE_PASSWORD_ENCRYPTION=false not applied")
	}
}

func TestEnvTransformSkipsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("RANDOM_UNRELATED_VAR"); got != "" {
		t.Errorf("expected unknown env var to be skipped, got %q", got)
	}
	if got := envTransformFunc("SESSION_SECRET"); got != "session.secret" {
		t.Errorf("expected session.secret, got %q", got)
	}
	if got := envTransformFunc("ALLOW_HTTP_SESSIONS"); got != "security.allow_http_sessions" {
		t.Errorf("expected security.allow_http_sessions, got %q", got)
	}
}

func TestStrictBindingEnabled(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		binding  string
		expected bool
	}{
		{"production default", "production", "production", true},
		{"development default", "development", "production", false},
		{"always in development", "development", "always", true},
		{"never in production", "production", "never", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Server.Environment = tt.env
			cfg.Session.StrictBinding = tt.binding
			if got := cfg.StrictBindingEnabled(); got != tt.expected {
				t.Errorf("StrictBindingEnabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}
