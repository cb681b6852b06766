// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package audit records every security-relevant decision the engine makes.
//
// Each entry carries a monotonically increasing sequence number persisted to
// disk before it is handed out, so numbers never repeat or go backward even
// across process restarts. Entries are appended as JSONL to audit.log;
// HIGH and CRITICAL entries are duplicated to security.log, and CRITICAL
// entries additionally trigger a pluggable alert hook.
//
// audit.log rotates when it exceeds a size ceiling, with a bounded number of
// rotations retained. A bounded in-memory store backs the admin query,
// export (JSON/CEF), and dashboard endpoints, and a periodic job writes a
// summary report (lockouts, top failing identifiers, authentication totals).
package audit
