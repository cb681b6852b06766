// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// SequenceCounter hands out strictly increasing sequence numbers that survive
// process restarts. The current value is persisted to a file before a number
// is returned to the caller, so a crash can skip numbers but never repeat one.
//
// The read-modify-write is guarded by a mutex; concurrent Record calls are
// serialized here.
type SequenceCounter struct {
	mu   sync.Mutex
	path string
	last int64
}

// NewSequenceCounter loads (or initializes) the counter persisted at path.
func NewSequenceCounter(path string) (*SequenceCounter, error) {
	c := &SequenceCounter{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		c.last = 0
	case err != nil:
		return nil, fmt.Errorf("failed to read sequence counter %s: %w", path, err)
	default:
		val, parseErr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("corrupt sequence counter %s: %w", path, parseErr)
		}
		c.last = val
	}

	return c, nil
}

// Next persists and returns the next sequence number. The value is written to
// disk before it is handed out.
func (c *SequenceCounter) Next() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.last + 1
	if err := c.persist(next); err != nil {
		return 0, err
	}

	c.last = next
	return next, nil
}

// Last returns the most recently issued sequence number.
func (c *SequenceCounter) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// persist writes the value atomically (write temp, rename). Must be called
// with the mutex held.
func (c *SequenceCounter) persist(val int64) error {
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(val, 10)), 0o600); err != nil {
		return fmt.Errorf("failed to write sequence counter: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to commit sequence counter: %w", err)
	}
	return nil
}
