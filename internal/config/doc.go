// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package config provides layered configuration management for Authgate.
//
// Configuration is loaded with Koanf v2 from three layers, later layers
// overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// Legacy flat environment variable names are mapped onto the nested structure
// for backward compatibility, e.g. SESSION_SECRET, TRUSTED_HOSTS,
// CORS_ALLOWED_ORIGINS, ALLOW_HTTP_SESSIONS, ALLOW_INSECURE_COOKIES,
// COOKIE_SAMESITE, COOKIE_DOMAIN, ENABLE_PASSWORD_ENCRYPTION, APP_ENV.
//
// The loaded Config is validated before use and is immutable afterwards, so
// it is safe for concurrent reads.
package config
