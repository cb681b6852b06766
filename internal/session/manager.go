// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/govportal/authgate/internal/logging"
)

// Blacklist reasons recorded with terminated session ids.
const (
	ReasonLogout      = "logout"
	ReasonTimeout     = "inactivity_timeout"
	ReasonHijack      = "binding_mismatch"
	ReasonRegenerated = "regenerated_at_login"
)

// Config holds lifecycle settings.
type Config struct {
	// Timeout is the inactivity window.
	Timeout time.Duration

	// WarningWindow is how close to timeout the expiry warning is raised.
	WarningWindow time.Duration

	// StrictBinding revokes sessions on IP or User-Agent mismatch.
	StrictBinding bool
}

// Status is the session-status endpoint payload.
type Status struct {
	Valid         bool          `json:"valid"`
	TimeRemaining time.Duration `json:"-"`
	IsWarning     bool          `json:"isWarning"`
}

// Manager drives the session lifecycle over a Store and a Blacklist.
type Manager struct {
	store     Store
	blacklist Blacklist
	config    Config
	secLog    *logging.SecurityLogger
}

// NewManager creates a Manager.
func NewManager(store Store, blacklist Blacklist, config Config) *Manager {
	return &Manager{
		store:     store,
		blacklist: blacklist,
		config:    config,
		secLog:    logging.NewSecurityLogger(),
	}
}

// Issue creates a session for an authenticated user. The previous session id
// (if any) is invalidated first so the id the user authenticates under is
// never one an attacker could have planted. The new session is persisted
// before Issue returns; the caller may write the response immediately.
func (m *Manager) Issue(ctx context.Context, previousID, userID, username, role, clientIP, userAgent string) (*Session, error) {
	if previousID != "" {
		if err := m.terminate(ctx, previousID, ReasonRegenerated); err != nil {
			return nil, fmt.Errorf("failed to invalidate previous session: %w", err)
		}
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:             id,
		UserID:         userID,
		Username:       username,
		Role:           role,
		BoundIP:        clientIP,
		BoundUserAgent: userAgent,
		LoginToken:     uuid.NewString(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	issuedTotal.Inc()
	return s, nil
}

// Validate checks a presented session id and, when every check passes,
// advances the activity timestamp. The boolean reports whether the session
// is inside the expiry-warning window.
//
// Check order is fixed: blacklist first (a replayed id must never be treated
// as merely missing), then existence, then timeout, then binding.
func (m *Manager) Validate(ctx context.Context, id, clientIP, userAgent string) (*Session, bool, error) {
	blocked, err := m.blacklist.Contains(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("blacklist check failed: %w", err)
	}
	if blocked {
		validateTotal.WithLabelValues("replayed").Inc()
		m.secLog.LogSessionReplayBlocked(id, clientIP, userAgent)
		return nil, false, ErrSessionReplayed
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		validateTotal.WithLabelValues("not_found").Inc()
		return nil, false, err
	}

	if s.IsInactive(m.config.Timeout) {
		if err := m.terminate(ctx, id, ReasonTimeout); err != nil {
			return nil, false, err
		}
		validateTotal.WithLabelValues("timeout").Inc()
		return nil, false, ErrSessionTimeout
	}

	if m.config.StrictBinding && (s.BoundIP != clientIP || s.BoundUserAgent != userAgent) {
		if err := m.terminate(ctx, id, ReasonHijack); err != nil {
			return nil, false, err
		}
		validateTotal.WithLabelValues("hijacked").Inc()
		logging.Warn().
			Str("session_id", logging.SanitizeSessionID(id)).
			Str("bound_ip", s.BoundIP).
			Str("request_ip", clientIP).
			Msg("Session binding mismatch, session revoked")
		return nil, false, ErrSessionHijacked
	}

	warning := s.Remaining(m.config.Timeout) <= m.config.WarningWindow

	s.LastActivityAt = time.Now()
	if err := m.store.Update(ctx, s); err != nil {
		return nil, false, fmt.Errorf("failed to update session activity: %w", err)
	}

	validateTotal.WithLabelValues("ok").Inc()
	return s, warning, nil
}

// Logout terminates a session. Blacklisting happens before the store delete;
// the ordering is a hard invariant. Ids the store has never seen are not
// blacklisted, so anonymous clients cannot grow the blacklist with garbage.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if _, err := m.store.Get(ctx, id); err != nil {
		return err
	}
	return m.terminate(ctx, id, ReasonLogout)
}

// Extend resets the inactivity timer without any other side effect.
func (m *Manager) Extend(ctx context.Context, id string) error {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	s.LastActivityAt = time.Now()
	return m.store.Update(ctx, s)
}

// Status reports validity and time remaining without advancing the activity
// timestamp, so a polling status widget cannot keep a session alive forever.
func (m *Manager) Status(ctx context.Context, id string) (*Status, error) {
	blocked, err := m.blacklist.Contains(ctx, id)
	if err != nil {
		return nil, err
	}
	if blocked {
		return &Status{Valid: false}, nil
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return &Status{Valid: false}, nil
	}
	if s.IsInactive(m.config.Timeout) {
		return &Status{Valid: false}, nil
	}

	remaining := s.Remaining(m.config.Timeout)
	return &Status{
		Valid:         true,
		TimeRemaining: remaining,
		IsWarning:     remaining <= m.config.WarningWindow,
	}, nil
}

// Sweep expires idle sessions and prunes stale blacklist entries. Expired
// ids are blacklisted so a cookie presented after the sweep still gets the
// replay response rather than a generic miss.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-m.config.Timeout)

	expired, err := m.store.SweepInactive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session sweep failed: %w", err)
	}
	for _, id := range expired {
		if err := m.blacklist.Add(ctx, id, ReasonTimeout); err != nil {
			return len(expired), fmt.Errorf("failed to blacklist swept session: %w", err)
		}
	}

	pruned, err := m.blacklist.Sweep(ctx)
	if err != nil {
		return len(expired), fmt.Errorf("blacklist sweep failed: %w", err)
	}

	if len(expired) > 0 || pruned > 0 {
		logging.Debug().
			Int("expired_sessions", len(expired)).
			Int("pruned_blacklist", pruned).
			Msg("Session sweep completed")
	}
	return len(expired), nil
}

// terminate blacklists then deletes. Never reorder: a crash after the
// blacklist insert leaves a harmless orphan, a crash after a delete-first
// would leave a replayable id.
func (m *Manager) terminate(ctx context.Context, id, reason string) error {
	if err := m.blacklist.Add(ctx, id, reason); err != nil {
		return fmt.Errorf("failed to blacklist session: %w", err)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	terminatedTotal.WithLabelValues(reason).Inc()
	return nil
}
