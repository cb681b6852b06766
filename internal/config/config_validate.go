// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateSession(); err != nil {
		return err
	}

	if err := c.validateCaptcha(); err != nil {
		return err
	}

	if err := c.validateCredential(); err != nil {
		return err
	}

	if err := c.validatePassword(); err != nil {
		return err
	}

	if err := c.validateLockout(); err != nil {
		return err
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Server.Environment {
	case "production", "development":
	default:
		return fmt.Errorf("APP_ENV must be 'production' or 'development', got %q", c.Server.Environment)
	}

	return nil
}

func (c *Config) validateSecurity() error {
	if c.IsProduction() && c.Security.AllowHTTPSessions {
		return fmt.Errorf("ALLOW_HTTP_SESSIONS must not be enabled in production")
	}

	for _, origin := range c.Security.CORSAllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain a wildcard entry")
		}
	}

	for _, pattern := range c.Security.TrustedHostPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("TRUSTED_HOST_PATTERNS entry %q is not a valid regexp: %w", pattern, err)
		}
	}

	for _, pattern := range c.Security.CORSOriginPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("CORS_ORIGIN_PATTERNS entry %q is not a valid regexp: %w", pattern, err)
		}
	}

	if c.Security.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1, got %d", c.Security.LoginRateLimit)
	}

	return nil
}

func (c *Config) validateSession() error {
	if c.IsProduction() && c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(c.Session.Secret))
	}

	if c.Session.Timeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.Session.WarningWindow < 0 || c.Session.WarningWindow >= c.Session.Timeout {
		return fmt.Errorf("session warning window must be shorter than the session timeout")
	}
	if c.Session.BlacklistRetention <= 0 {
		return fmt.Errorf("session blacklist retention must be positive")
	}

	switch c.Session.Store {
	case "memory", "badger":
	default:
		return fmt.Errorf("SESSION_STORE must be 'memory' or 'badger', got %q", c.Session.Store)
	}
	if c.Session.Store == "badger" && c.Session.StorePath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name must not be empty")
	}

	switch strings.ToLower(c.Session.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("COOKIE_SAMESITE must be 'lax', 'strict', or 'none', got %q", c.Session.CookieSameSite)
	}

	if c.IsProduction() && c.Session.AllowInsecureCookies {
		return fmt.Errorf("ALLOW_INSECURE_COOKIES must not be enabled in production")
	}

	switch c.Session.StrictBinding {
	case "production", "always", "never":
	default:
		return fmt.Errorf("session strict_binding must be 'production', 'always', or 'never', got %q", c.Session.StrictBinding)
	}

	return nil
}

func (c *Config) validateCaptcha() error {
	if c.Captcha.Expiry <= 0 {
		return fmt.Errorf("captcha expiry must be positive")
	}
	if c.Captcha.MaxAttempts < 1 {
		return fmt.Errorf("captcha max attempts must be at least 1, got %d", c.Captcha.MaxAttempts)
	}
	if c.Captcha.RateLimit < 1 {
		return fmt.Errorf("CAPTCHA_RATE_LIMIT must be at least 1, got %d", c.Captcha.RateLimit)
	}
	return nil
}

func (c *Config) validateCredential() error {
	if !c.Credential.Enabled {
		return nil
	}

	if c.Credential.KeysDir == "" {
		return fmt.Errorf("CREDENTIAL_KEYS_DIR is required when ENABLE_PASSWORD_ENCRYPTION=true")
	}
	if c.Credential.MaxAge <= 0 {
		return fmt.Errorf("credential max age must be positive")
	}
	if c.Credential.NonceRetention <= 0 {
		return fmt.Errorf("credential nonce retention must be positive")
	}

	switch c.Credential.NonceStore {
	case "memory", "badger":
	default:
		return fmt.Errorf("CREDENTIAL_NONCE_STORE must be 'memory' or 'badger', got %q", c.Credential.NonceStore)
	}

	return nil
}

func (c *Config) validatePassword() error {
	if c.Password.Iterations < 100000 {
		return fmt.Errorf("PASSWORD_ITERATIONS must be at least 100000, got %d", c.Password.Iterations)
	}
	if c.Password.MinLength < 8 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 8, got %d", c.Password.MinLength)
	}
	return nil
}

func (c *Config) validateLockout() error {
	if c.Lockout.Threshold < 1 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1, got %d", c.Lockout.Threshold)
	}
	if c.Lockout.Duration <= 0 {
		return fmt.Errorf("lockout duration must be positive")
	}
	if c.Lockout.PurgeAfter <= c.Lockout.Duration {
		return fmt.Errorf("lockout purge_after must exceed the lockout duration")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.Dir == "" {
		return fmt.Errorf("AUDIT_DIR must not be empty")
	}
	if c.Audit.MaxFileSize < 1<<16 {
		return fmt.Errorf("audit max file size must be at least 64KB, got %d", c.Audit.MaxFileSize)
	}
	if c.Audit.MaxRotations < 1 {
		return fmt.Errorf("AUDIT_MAX_ROTATIONS must be at least 1, got %d", c.Audit.MaxRotations)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}

	return nil
}
