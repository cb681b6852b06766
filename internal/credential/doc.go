// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package credential decrypts the encrypted envelope a client submits in
// place of a bare password.
//
// The envelope is base64(RSA-OAEP-SHA256(JSON{password, nonce, timestamp})).
// Decryption enforces two freshness checks: the embedded timestamp must be
// no older than a configured window, and the nonce (stored as a SHA-256
// hash, never raw) must not have been seen within its retention window.
// Together they make a captured envelope worthless to an attacker who
// replays it.
//
// The RSA key pair is generated once, persisted under a restricted
// directory, and cached for the life of the process. Only the public half
// is ever exposed over the wire.
package credential
