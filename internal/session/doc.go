// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package session manages the authenticated session lifecycle: issue with id
// regeneration at login, per-request validation, inactivity timeout,
// IP/User-Agent binding, and termination.
//
// A terminated session id (logout, timeout, hijack detection) moves into a
// blacklist and is never accepted again within the retention window. On
// logout the id is blacklisted before the store entry is destroyed; a crash
// between the two steps leaves a blacklisted orphan, which is safe, where the
// reverse order would leave a replayable id.
package session
