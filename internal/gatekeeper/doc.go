// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package gatekeeper applies the checks every request must pass before any
// business logic runs: Host header validation against a whitelist, HTTP
// method filtering, HTTPS enforcement on credential endpoints, and CORS
// origin validation.
//
// A single Whitelist value object (exact entries plus regex patterns) backs
// both the host and origin checks, and a single
// ConnectionSecurityInspector is the only source of truth for whether a
// request is secure, so the determinations cannot drift between call sites.
// All rejections are written to the audit trail with HIGH severity and a
// stable machine-readable code.
package gatekeeper
