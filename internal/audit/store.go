// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the most recent entries in a bounded ring for the admin
// query, export, and dashboard endpoints. The append-only files remain the
// durable record; this store only serves reads.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	next     int
	full     bool
}

// NewMemoryStore creates a store retaining up to capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryStore{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Save appends an entry, evicting the oldest when at capacity.
func (s *MemoryStore) Save(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = *e
	s.next++
	if s.next == s.capacity {
		s.next = 0
		s.full = true
	}
}

// snapshot returns stored entries oldest-first. Must be called with at least
// a read lock held.
func (s *MemoryStore) snapshot() []Entry {
	if !s.full {
		out := make([]Entry, s.next)
		copy(out, s.entries[:s.next])
		return out
	}

	out := make([]Entry, 0, s.capacity)
	out = append(out, s.entries[s.next:]...)
	out = append(out, s.entries[:s.next]...)
	return out
}

// Query returns matching entries, newest first, honoring Limit and Offset.
func (s *MemoryStore) Query(filter QueryFilter) []Entry {
	s.mu.RLock()
	all := s.snapshot()
	s.mu.RUnlock()

	matched := make([]Entry, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Seq > matched[j].Seq
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched
}

// Count returns the number of entries matching the filter.
func (s *MemoryStore) Count(filter QueryFilter) int {
	s.mu.RLock()
	all := s.snapshot()
	s.mu.RUnlock()

	count := 0
	for i := range all {
		if filter.Matches(&all[i]) {
			count++
		}
	}
	return count
}

// Stats summarizes the stored entries for the admin dashboard.
type Stats struct {
	Total       int              `json:"total"`
	BySeverity  map[Severity]int `json:"by_severity"`
	ByStatus    map[Status]int   `json:"by_status"`
	ByEvent     map[string]int   `json:"by_event"`
	OldestEntry *time.Time       `json:"oldest_entry,omitempty"`
	NewestEntry *time.Time       `json:"newest_entry,omitempty"`
}

// Stats aggregates the stored entries.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	all := s.snapshot()
	s.mu.RUnlock()

	stats := Stats{
		Total:      len(all),
		BySeverity: make(map[Severity]int),
		ByStatus:   make(map[Status]int),
		ByEvent:    make(map[string]int),
	}

	for i := range all {
		e := &all[i]
		stats.BySeverity[e.Severity]++
		stats.ByStatus[e.Status]++
		stats.ByEvent[e.Event]++

		if stats.OldestEntry == nil || e.Timestamp.Before(*stats.OldestEntry) {
			t := e.Timestamp
			stats.OldestEntry = &t
		}
		if stats.NewestEntry == nil || e.Timestamp.After(*stats.NewestEntry) {
			t := e.Timestamp
			stats.NewestEntry = &t
		}
	}

	return stats
}
