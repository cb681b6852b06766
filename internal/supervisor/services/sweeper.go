// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package services

import (
	"context"
	"time"

	"github.com/govportal/authgate/internal/logging"
)

// SweepFunc removes expired entries from a store and reports how many were
// removed. The session manager, CAPTCHA engine, nonce registry, and lockout
// tracker all expose this shape.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper periodically runs a sweep function as a supervised service. A
// failing sweep is logged and retried on the next tick; only context
// cancellation ends the service.
type Sweeper struct {
	name     string
	interval time.Duration
	sweep    SweepFunc
}

// NewSweeper creates a Sweeper. Intervals at or below zero default to five
// minutes.
func NewSweeper(name string, interval time.Duration, sweep SweepFunc) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{name: name, interval: interval, sweep: sweep}
}

// Serve implements suture.Service.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.sweep(ctx)
			if err != nil {
				logging.Warn().Err(err).Str("sweeper", s.name).Msg("Sweep failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Str("sweeper", s.name).Int("removed", removed).Msg("Sweep completed")
			}
		}
	}
}

func (s *Sweeper) String() string {
	return s.name
}
