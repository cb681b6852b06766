// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Summary aggregates security activity over a reporting window.
type Summary struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	WindowStart   time.Time      `json:"window_start"`
	WindowEnd     time.Time      `json:"window_end"`
	TotalEvents   int            `json:"total_events"`
	LoginSuccess  int            `json:"login_success"`
	LoginFailure  int            `json:"login_failure"`
	Lockouts      int            `json:"lockouts"`
	ReplayBlocked int            `json:"replay_blocked"`
	Critical      int            `json:"critical_events"`
	TopFailing    []FailingUser  `json:"top_failing_identifiers"`
	ByEvent       map[string]int `json:"by_event"`
}

// FailingUser pairs an identifier with its failure count.
type FailingUser struct {
	Username string `json:"username"`
	Failures int    `json:"failures"`
}

// Summarize builds a Summary from stored entries within the window.
func (l *Logger) Summarize(start, end time.Time) Summary {
	entries := l.store.Query(QueryFilter{
		StartTime: &start,
		EndTime:   &end,
		Limit:     0,
	})

	summary := Summary{
		GeneratedAt: time.Now().UTC(),
		WindowStart: start,
		WindowEnd:   end,
		TotalEvents: len(entries),
		ByEvent:     make(map[string]int),
	}

	failures := make(map[string]int)
	for i := range entries {
		e := &entries[i]
		summary.ByEvent[e.Event]++

		switch e.Event {
		case EventLoginSuccess:
			summary.LoginSuccess++
		case EventLoginFailure:
			summary.LoginFailure++
			if e.Username != "" {
				failures[e.Username]++
			}
		case EventAccountLockout:
			summary.Lockouts++
		case EventSessionReplay:
			summary.ReplayBlocked++
		}

		if e.Severity == SeverityCritical {
			summary.Critical++
		}
	}

	for username, count := range failures {
		summary.TopFailing = append(summary.TopFailing, FailingUser{Username: username, Failures: count})
	}
	sort.Slice(summary.TopFailing, func(i, j int) bool {
		if summary.TopFailing[i].Failures != summary.TopFailing[j].Failures {
			return summary.TopFailing[i].Failures > summary.TopFailing[j].Failures
		}
		return summary.TopFailing[i].Username < summary.TopFailing[j].Username
	})
	if len(summary.TopFailing) > 10 {
		summary.TopFailing = summary.TopFailing[:10]
	}

	return summary
}

// WriteReport summarizes the window ending now and writes the report as JSON
// to a dated file in the audit directory. Returns the report path.
func (l *Logger) WriteReport(window time.Duration) (string, error) {
	end := time.Now().UTC()
	summary := l.Summarize(end.Add(-window), end)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary report: %w", err)
	}

	path := filepath.Join(l.config.Dir,
		fmt.Sprintf("audit-summary-%s.json", end.Format("20060102")))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write summary report: %w", err)
	}

	return path, nil
}
