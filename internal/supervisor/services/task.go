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

// Task periodically runs a housekeeping function that has no removal count,
// such as audit log rotation checks or report generation. Failures are
// logged and retried on the next tick.
type Task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// NewTask creates a Task. Intervals at or below zero default to one hour.
func NewTask(name string, interval time.Duration, run func(ctx context.Context) error) *Task {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Task{name: name, interval: interval, run: run}
}

// Serve implements suture.Service.
func (t *Task) Serve(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.run(ctx); err != nil {
				logging.Warn().Err(err).Str("task", t.name).Msg("Maintenance task failed")
			}
		}
	}
}

func (t *Task) String() string {
	return t.name
}
