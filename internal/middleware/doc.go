// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package middleware holds the protocol-agnostic HTTP middleware: request
// id propagation, Prometheus instrumentation, and security response
// headers. Authentication-specific middleware lives with its owning
// package.
package middleware
