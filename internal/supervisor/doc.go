// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package supervisor builds the suture supervision tree. Services live in
// the services subpackage; this package only wires the hierarchy and its
// restart policy.
package supervisor
