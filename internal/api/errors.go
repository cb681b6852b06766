// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// errors.go - Stable machine-readable error codes for API responses.
// Clients branch on these codes, never on message prose, so changing a
// code is a breaking change.
package api

const (
	// Session codes. Replay gets its own code so clients can distinguish
	// "log in again" from "your session id was stolen or reused".
	CodeSessionRequired      = "SESSION_REQUIRED"
	CodeSessionInvalid       = "SESSION_INVALID"
	CodeSessionTimeout       = "SESSION_TIMEOUT"
	CodeSessionReplayBlocked = "SESSION_REPLAY_BLOCKED"

	// Authentication codes.
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeCaptchaRequired    = "CAPTCHA_REQUIRED"
	CodeCaptchaFailed      = "CAPTCHA_FAILED"
	CodeCredentialExpired  = "CREDENTIAL_EXPIRED"
	CodeCredentialReplayed = "CREDENTIAL_REPLAYED"
	CodeDecryptionFailed   = "DECRYPTION_FAILED"

	// Request codes.
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeMalformedRequest = "MALFORMED_REQUEST"
	CodeRateLimited      = "RATE_LIMITED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"

	// Upload codes.
	CodeUploadRejected = "UPLOAD_REJECTED"
	CodeUploadTooLarge = "UPLOAD_TOO_LARGE"
)
