// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package captcha issues and verifies short-lived proof-of-humanity
// challenges rendered as SVG.
//
// Challenges store only a keyed hash of the expected answer, never the
// plaintext, so a memory dump or log leak cannot reveal answers. Each
// challenge allows at most three verification attempts within a three-minute
// window. Verification has a consuming and a non-consuming mode: consume=true
// permanently deletes the challenge (the real login boundary), consume=false
// marks it verified but keeps it (live typing feedback in the client).
// Generation is rate limited per client IP in production.
package captcha
