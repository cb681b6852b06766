// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package services holds the supervised service wrappers: periodic sweepers
// for expiring state and housekeeping tasks for the audit trail. The HTTP
// server implements suture.Service directly in the api package.
package services
