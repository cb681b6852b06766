// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package lockout counts failed authentication attempts per identifier and
// enforces a temporary lockout once the failure threshold is crossed. A
// single successful attempt resets the counter. Attempt records inactive
// past the purge window are garbage collected, and administrators can
// unlock individual accounts or all of them.
package lockout
