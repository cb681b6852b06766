// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variables (highest priority).
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Session    SessionConfig    `koanf:"session"`
	Captcha    CaptchaConfig    `koanf:"captcha"`
	Credential CredentialConfig `koanf:"credential"`
	Password   PasswordConfig   `koanf:"password"`
	Lockout    LockoutConfig    `koanf:"lockout"`
	Audit      AuditConfig      `koanf:"audit"`
	Upload     UploadConfig     `koanf:"upload"`
	Users      UsersConfig      `koanf:"users"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - APP_ENV: "production" or "development" (default: development)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment selects production or development behavior. Production
	// enables strict session binding, HTTPS-only credential endpoints,
	// Origin requirements, and CAPTCHA rate limiting.
	Environment string `koanf:"environment"`
}

// SecurityConfig holds request-gatekeeper settings: trusted hosts, CORS
// origins, and transport policy.
//
// Environment Variables:
//   - TRUSTED_HOSTS: comma-separated exact host entries appended to the whitelist
//   - TRUSTED_HOST_PATTERNS: comma-separated regex patterns (e.g. ^[a-z0-9-]+\.example\.gov$)
//   - CORS_ALLOWED_ORIGINS: comma-separated exact origin entries
//   - CORS_ORIGIN_PATTERNS: comma-separated regex patterns for origins
//   - ALLOW_HTTP_SESSIONS: allow credential endpoints over plain HTTP (development only)
type SecurityConfig struct {
	TrustedHosts        []string `koanf:"trusted_hosts"`
	TrustedHostPatterns []string `koanf:"trusted_host_patterns"`
	CORSAllowedOrigins  []string `koanf:"cors_allowed_origins"`
	CORSOriginPatterns  []string `koanf:"cors_origin_patterns"`

	// AllowHTTPSessions disables HTTPS enforcement on credential-bearing
	// endpoints. Must never be enabled in production; Validate rejects it.
	AllowHTTPSessions bool `koanf:"allow_http_sessions"`

	// LoginRateLimit / LoginRateWindow bound login attempts per client IP
	// at the router level, independent of account lockout.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// SessionConfig holds session lifecycle and cookie policy settings.
//
// Environment Variables:
//   - SESSION_SECRET: server secret for session id generation and CAPTCHA answer hashing
//   - SESSION_STORE: "memory" or "badger" (default: memory)
//   - SESSION_STORE_PATH: BadgerDB directory when store is "badger"
//   - ALLOW_INSECURE_COOKIES: never set the Secure cookie flag (development only)
//   - COOKIE_SAMESITE: "lax", "strict", or "none" (default: lax)
//   - COOKIE_DOMAIN: optional Domain attribute for multi-subdomain deployments
type SessionConfig struct {
	Secret string `koanf:"secret"`

	// Timeout is the inactivity window after which a session expires.
	Timeout time.Duration `koanf:"timeout"`

	// WarningWindow is how close to expiry the warning header is emitted.
	WarningWindow time.Duration `koanf:"warning_window"`

	// BlacklistRetention is how long terminated session ids stay blocked.
	BlacklistRetention time.Duration `koanf:"blacklist_retention"`

	// SweepInterval is how often expired sessions and stale blacklist
	// entries are garbage collected.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	Store     string `koanf:"store"`
	StorePath string `koanf:"store_path"`

	CookieName           string `koanf:"cookie_name"`
	CookiePath           string `koanf:"cookie_path"`
	CookieDomain         string `koanf:"cookie_domain"`
	CookieSameSite       string `koanf:"cookie_samesite"`
	AllowInsecureCookies bool   `koanf:"allow_insecure_cookies"`

	// StrictBinding controls IP/User-Agent binding enforcement:
	// "production" (default), "always", or "never".
	StrictBinding string `koanf:"strict_binding"`
}

// CaptchaConfig holds CAPTCHA engine settings.
type CaptchaConfig struct {
	// Expiry is the challenge lifetime (default: 3m).
	Expiry time.Duration `koanf:"expiry"`

	// MaxAttempts bounds verification attempts per challenge (default: 3).
	MaxAttempts int `koanf:"max_attempts"`

	// RateLimit is generations allowed per IP per RateWindow in production
	// (default: 100 per 15m). Development is unlimited.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`

	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// CredentialConfig holds credential-transport decryption settings.
//
// Environment Variables:
//   - ENABLE_PASSWORD_ENCRYPTION: require encrypted credential envelopes (default: true)
//   - CREDENTIAL_KEYS_DIR: directory holding the RSA key pair (default: .keys)
type CredentialConfig struct {
	// Enabled requires login payloads to carry an encrypted envelope.
	// When disabled, bare plaintext passwords are accepted with a
	// warning audit event.
	Enabled bool `koanf:"enabled"`

	KeysDir string `koanf:"keys_dir"`

	// MaxAge rejects envelopes whose embedded timestamp is older (default: 5m).
	MaxAge time.Duration `koanf:"max_age"`

	// NonceRetention is how long seen nonce hashes are remembered (default: 5m).
	NonceRetention time.Duration `koanf:"nonce_retention"`

	NonceSweepInterval time.Duration `koanf:"nonce_sweep_interval"`

	// NonceStore is "memory" or "badger".
	NonceStore string `koanf:"nonce_store"`
}

// PasswordConfig holds password hashing parameters.
type PasswordConfig struct {
	// Iterations is the PBKDF2 iteration count (default: 120000).
	Iterations int `koanf:"iterations"`

	// MinLength is the minimum accepted password length at registration.
	MinLength int `koanf:"min_length"`
}

// LockoutConfig holds account lockout settings.
type LockoutConfig struct {
	// Threshold is consecutive failures before lockout (default: 5).
	Threshold int `koanf:"threshold"`

	// Duration is the lockout window (default: 15m).
	Duration time.Duration `koanf:"duration"`

	// PurgeAfter removes attempt records inactive this long (default: 720h).
	PurgeAfter time.Duration `koanf:"purge_after"`

	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// AuditConfig holds audit log settings.
type AuditConfig struct {
	// Dir is where audit.log, security.log, the sequence counter file,
	// and rotated logs live.
	Dir string `koanf:"dir"`

	// MaxFileSize triggers rotation when audit.log exceeds it, in bytes.
	MaxFileSize int64 `koanf:"max_file_size"`

	// MaxRotations bounds retained rotated files; older ones are deleted.
	MaxRotations int `koanf:"max_rotations"`

	// ReportInterval is how often the summary report job runs (default: 168h).
	ReportInterval time.Duration `koanf:"report_interval"`

	RotateCheckInterval time.Duration `koanf:"rotate_check_interval"`
}

// UploadConfig holds file upload validation settings.
type UploadConfig struct {
	Dir string `koanf:"dir"`

	MaxImageSize    int64 `koanf:"max_image_size"`
	MaxDocumentSize int64 `koanf:"max_document_size"`
	MaxVideoSize    int64 `koanf:"max_video_size"`

	// TailScanBytes is the size of the dedicated tail window scanned for
	// appended payloads (default: 4096).
	TailScanBytes int `koanf:"tail_scan_bytes"`
}

// UsersConfig holds bootstrap admin credentials for the in-memory user store.
//
// Environment Variables:
//   - ADMIN_USERNAME, ADMIN_PASSWORD, ADMIN_EMAIL
type UsersConfig struct {
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	AdminEmail    string `koanf:"admin_email"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// StrictBindingEnabled reports whether IP/User-Agent session binding is
// enforced for the current environment.
func (c *Config) StrictBindingEnabled() bool {
	switch c.Session.StrictBinding {
	case "always":
		return true
	case "never":
		return false
	default:
		return c.IsProduction()
	}
}
