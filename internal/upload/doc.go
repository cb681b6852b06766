// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package upload validates file uploads before they are persisted.
//
// The client-declared Content-Type is treated as a hint to be verified,
// never a fact: the actual byte signature must match the target category,
// the full stream (including a dedicated tail window, a common
// payload-appending spot) is scanned for embedded executables and textual
// injection markers, and filenames are validated and sanitized
// independently. Accepted files are written with non-executable
// permissions.
package upload
