// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package api assembles the HTTP surface: routing, request decoding,
// handler logic, and the server lifecycle. Handlers stay thin; the
// security decisions live in the engine packages this one wires together.
package api
