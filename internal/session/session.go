// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Session-related errors. Validate maps each to a distinct response code so
// clients can branch without parsing prose.
var (
	// ErrSessionNotFound is returned when a session id is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionTimeout is returned when the inactivity window has elapsed.
	ErrSessionTimeout = errors.New("session timed out")

	// ErrSessionReplayed is returned when a blacklisted session id is
	// presented again.
	ErrSessionReplayed = errors.New("session id has been invalidated")

	// ErrSessionHijacked is returned when strict binding detects an
	// IP or User-Agent mismatch.
	ErrSessionHijacked = errors.New("session binding mismatch")
)

// Session represents one authenticated browser interaction.
type Session struct {
	// ID is the opaque high-entropy session identifier.
	ID string `json:"id"`

	// UserID and Username identify the authenticated user.
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`

	// BoundIP and BoundUserAgent pin the session to the client that
	// authenticated. Checked only in strict binding mode.
	BoundIP        string `json:"bound_ip"`
	BoundUserAgent string `json:"bound_user_agent"`

	// LoginToken is unique per authentication event and detects stale
	// sessions that survived a regeneration.
	LoginToken string `json:"login_token"`

	// CreatedAt is the canonical session age source.
	CreatedAt time.Time `json:"created_at"`

	// LastActivityAt drives the inactivity timeout.
	LastActivityAt time.Time `json:"last_activity_at"`
}

// IsInactive reports whether the inactivity window has elapsed.
func (s *Session) IsInactive(timeout time.Duration) bool {
	return time.Since(s.LastActivityAt) > timeout
}

// Remaining returns the time left before the inactivity timeout fires.
func (s *Session) Remaining(timeout time.Duration) time.Duration {
	remaining := timeout - time.Since(s.LastActivityAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// newSessionID generates a cryptographically secure session identifier.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
