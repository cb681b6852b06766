// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package lockout

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/govportal/authgate/internal/logging"
)

// Config holds lockout settings.
type Config struct {
	// Threshold is the number of consecutive failures before lockout.
	Threshold int

	// Duration is the lockout window.
	Duration time.Duration

	// PurgeAfter removes attempt records inactive this long.
	PurgeAfter time.Duration
}

// entry tracks attempts for one identifier.
type entry struct {
	failedAttempts int
	successCount   int
	failureCount   int
	lastAttempt    time.Time
	lockedUntil    time.Time
}

func (e *entry) isLocked() bool {
	return time.Now().Before(e.lockedUntil)
}

// LockedAccount is the admin-facing view of a locked identifier.
type LockedAccount struct {
	Identifier     string        `json:"identifier"`
	FailedAttempts int           `json:"failedAttempts"`
	LockedUntil    time.Time     `json:"lockedUntil"`
	Remaining      time.Duration `json:"-"`
	RemainingSecs  int           `json:"remainingSeconds"`
}

// Tracker enforces per-identifier lockout. All state is in process memory;
// a restart forgives in-flight counters, which only delays an attacker by
// the restart itself.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  Config
}

// NewTracker creates a Tracker.
func NewTracker(config Config) *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		config:  config,
	}
}

// IsLocked reports whether the identifier is locked and the time remaining.
func (t *Tracker) IsLocked(identifier string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[identifier]
	if !ok || !e.isLocked() {
		return false, 0
	}
	return true, time.Until(e.lockedUntil)
}

// RecordAttempt records the outcome of an authentication attempt and reports
// whether the identifier is now locked (with time remaining). A success
// resets the failure counter to zero. Attempts against an already-locked
// identifier are not counted; the lock window does not extend itself.
func (t *Tracker) RecordAttempt(identifier string, success bool) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[identifier]
	if !ok {
		e = &entry{}
		t.entries[identifier] = e
	}

	if e.isLocked() {
		return true, time.Until(e.lockedUntil)
	}

	// A lock that expired on its own clears the counter for the next cycle.
	if !e.lockedUntil.IsZero() && !e.isLocked() {
		e.failedAttempts = 0
		e.lockedUntil = time.Time{}
	}

	e.lastAttempt = time.Now()

	if success {
		e.failedAttempts = 0
		e.successCount++
		attemptsTotal.WithLabelValues("success").Inc()
		return false, 0
	}

	e.failedAttempts++
	e.failureCount++
	attemptsTotal.WithLabelValues("failure").Inc()

	if e.failedAttempts >= t.config.Threshold {
		e.lockedUntil = time.Now().Add(t.config.Duration)
		lockoutsTotal.Inc()
		logging.Warn().
			Str("identifier", logging.SanitizeUsername(identifier)).
			Int("failed_attempts", e.failedAttempts).
			Dur("duration", t.config.Duration).
			Msg("Account locked after repeated failures")
		return true, t.config.Duration
	}
	return false, 0
}

// Unlock clears the lock and counters for one identifier. Returns whether an
// entry existed.
func (t *Tracker) Unlock(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[identifier]; !ok {
		return false
	}
	delete(t.entries, identifier)
	logging.Info().
		Str("identifier", logging.SanitizeUsername(identifier)).
		Msg("Account lockout cleared")
	return true
}

// UnlockAll clears every lock and counter, returning how many identifiers
// were locked at the time.
func (t *Tracker) UnlockAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	locked := 0
	for _, e := range t.entries {
		if e.isLocked() {
			locked++
		}
	}
	t.entries = make(map[string]*entry)
	logging.Info().Int("locked", locked).Msg("All account lockouts cleared")
	return locked
}

// LockedAccounts returns currently locked identifiers sorted by name.
func (t *Tracker) LockedAccounts() []LockedAccount {
	t.mu.Lock()
	defer t.mu.Unlock()

	var locked []LockedAccount
	for id, e := range t.entries {
		if !e.isLocked() {
			continue
		}
		remaining := time.Until(e.lockedUntil)
		locked = append(locked, LockedAccount{
			Identifier:     id,
			FailedAttempts: e.failedAttempts,
			LockedUntil:    e.lockedUntil,
			Remaining:      remaining,
			RemainingSecs:  int(remaining.Seconds()),
		})
	}
	sort.Slice(locked, func(i, j int) bool {
		return locked[i].Identifier < locked[j].Identifier
	})
	return locked
}

// Purge removes records inactive past the purge window. Locked entries are
// never purged.
func (t *Tracker) Purge(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-t.config.PurgeAfter)
	count := 0
	for id, e := range t.entries {
		if !e.isLocked() && e.lastAttempt.Before(cutoff) {
			delete(t.entries, id)
			count++
		}
	}
	if count > 0 {
		logging.Debug().Int("count", count).Msg("Purged stale lockout records")
	}
	return count, nil
}

// Size returns the number of tracked identifiers.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
