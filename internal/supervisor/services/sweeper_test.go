// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSweeperRunsOnInterval(t *testing.T) {
	var calls atomic.Int64
	s := NewSweeper("test-sweeper", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestSweeperSurvivesFailures(t *testing.T) {
	var calls atomic.Int64
	s := NewSweeper("failing-sweeper", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("store unavailable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper stopped retrying after a failure")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestTaskRuns(t *testing.T) {
	var calls atomic.Int64
	task := NewTask("test-task", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	if task.String() != "test-task" {
		t.Errorf("String() = %q", task.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs before deadline", calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestDefaultIntervals(t *testing.T) {
	if s := NewSweeper("s", 0, nil); s.interval != 5*time.Minute {
		t.Errorf("sweeper default interval = %v", s.interval)
	}
	if task := NewTask("t", -1, nil); task.interval != time.Hour {
		t.Errorf("task default interval = %v", task.interval)
	}
}
