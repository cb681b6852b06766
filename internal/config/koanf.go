// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/authgate/config.yaml",
	"/etc/authgate/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			TrustedHosts:        []string{"localhost", "127.0.0.1"},
			TrustedHostPatterns: []string{},
			CORSAllowedOrigins:  []string{"http://localhost:3000", "http://localhost:8080"},
			CORSOriginPatterns:  []string{},
			AllowHTTPSessions:   false,
			LoginRateLimit:      5,
			LoginRateWindow:     5 * time.Minute,
		},
		Session: SessionConfig{
			Secret:               "",
			Timeout:              20 * time.Minute,
			WarningWindow:        2 * time.Minute,
			BlacklistRetention:   24 * time.Hour,
			SweepInterval:        5 * time.Minute,
			Store:                "memory",
			StorePath:            "/data/sessions",
			CookieName:           "cid.session.id",
			CookiePath:           "/",
			CookieDomain:         "",
			CookieSameSite:       "lax",
			AllowInsecureCookies: false,
			StrictBinding:        "production",
		},
		Captcha: CaptchaConfig{
			Expiry:        3 * time.Minute,
			MaxAttempts:   3,
			RateLimit:     100,
			RateWindow:    15 * time.Minute,
			SweepInterval: 2 * time.Minute,
		},
		Credential: CredentialConfig{
			Enabled:            true,
			KeysDir:            ".keys",
			MaxAge:             5 * time.Minute,
			NonceRetention:     5 * time.Minute,
			NonceSweepInterval: 1 * time.Minute,
			NonceStore:         "memory",
		},
		Password: PasswordConfig{
			Iterations: 120000,
			MinLength:  8,
		},
		Lockout: LockoutConfig{
			Threshold:     5,
			Duration:      15 * time.Minute,
			PurgeAfter:    720 * time.Hour,
			SweepInterval: 1 * time.Hour,
		},
		Audit: AuditConfig{
			Dir:                 "logs",
			MaxFileSize:         10 << 20, // 10MB
			MaxRotations:        5,
			ReportInterval:      168 * time.Hour,
			RotateCheckInterval: 5 * time.Minute,
		},
		Upload: UploadConfig{
			Dir:             "uploads",
			MaxImageSize:    10 << 20,  // 10MB
			MaxDocumentSize: 25 << 20,  // 25MB
			MaxVideoSize:    200 << 20, // 200MB
			TailScanBytes:   4096,
		},
		Users: UsersConfig{
			AdminUsername: "",
			AdminPassword: "",
			AdminEmail:    "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults. Legacy environment variable names
// (SESSION_SECRET, TRUSTED_HOSTS, CORS_ALLOWED_ORIGINS, ...) are mapped to
// their nested config paths for backward compatibility.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.trusted_hosts",
	"security.trusted_host_patterns",
	"security.cors_allowed_origins",
	"security.cors_origin_patterns",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// It handles the mapping from legacy environment variable names to the nested
// configuration structure.
//
// Examples:
//   - SESSION_SECRET -> session.secret
//   - TRUSTED_HOSTS -> security.trusted_hosts
//   - ENABLE_PASSWORD_ENCRYPTION -> credential.enabled
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.read_timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"app_env":          "server.environment",
		"environment":      "server.environment",

		// Gatekeeper mappings
		"trusted_hosts":         "security.trusted_hosts",
		"trusted_host_patterns": "security.trusted_host_patterns",
		"cors_allowed_origins":  "security.cors_allowed_origins",
		"cors_origin_patterns":  "security.cors_origin_patterns",
		"allow_http_sessions":   "security.allow_http_sessions",
		"login_rate_limit":      "security.login_rate_limit",
		"login_rate_window":     "security.login_rate_window",

		// Session mappings
		"session_secret":         "session.secret",
		"session_timeout":        "session.timeout",
		"session_warning_window": "session.warning_window",
		"session_store":          "session.store",
		"session_store_path":     "session.store_path",
		"session_cookie_name":    "session.cookie_name",
		"cookie_samesite":        "session.cookie_samesite",
		"cookie_domain":          "session.cookie_domain",
		"allow_insecure_cookies": "session.allow_insecure_cookies",
		"session_strict_binding": "session.strict_binding",

		// Captcha mappings
		"captcha_expiry":       "captcha.expiry",
		"captcha_max_attempts": "captcha.max_attempts",
		"captcha_rate_limit":   "captcha.rate_limit",
		"captcha_rate_window":  "captcha.rate_window",

		// Credential transport mappings
		"enable_password_encryption": "credential.enabled",
		"credential_keys_dir":        "credential.keys_dir",
		"credential_max_age":         "credential.max_age",
		"credential_nonce_store":     "credential.nonce_store",

		// Password mappings
		"password_iterations": "password.iterations",
		"password_min_length": "password.min_length",

		// Lockout mappings
		"lockout_threshold":   "lockout.threshold",
		"lockout_duration":    "lockout.duration",
		"lockout_purge_after": "lockout.purge_after",

		// Audit mappings
		"audit_dir":             "audit.dir",
		"audit_max_file_size":   "audit.max_file_size",
		"audit_max_rotations":   "audit.max_rotations",
		"audit_report_interval": "audit.report_interval",

		// Upload mappings
		"upload_dir":             "upload.dir",
		"upload_max_image_size":  "upload.max_image_size",
		"upload_max_doc_size":    "upload.max_document_size",
		"upload_max_video_size":  "upload.max_video_size",
		"upload_tail_scan_bytes": "upload.tail_scan_bytes",

		// Bootstrap user mappings
		"admin_username": "users.admin_username",
		"admin_password": "users.admin_password",
		"admin_email":    "users.admin_email",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}
