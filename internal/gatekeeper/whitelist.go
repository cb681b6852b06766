// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"fmt"
	"regexp"
	"strings"
)

// Whitelist matches a value against a set of exact entries plus compiled
// regular-expression patterns. It is built once at startup and shared by the
// host-validation and CORS-origin call sites, so the two can never drift.
//
// Matching is case-insensitive for exact entries (hosts and origins are
// case-insensitive per RFC 3986); patterns match against the lowercased value.
type Whitelist struct {
	exact    map[string]struct{}
	patterns []*regexp.Regexp
}

// NewWhitelist builds a Whitelist from exact entries and regex pattern
// strings. Invalid patterns fail construction; a whitelist is configuration
// and must not degrade silently.
func NewWhitelist(exact, patterns []string) (*Whitelist, error) {
	w := &Whitelist{
		exact: make(map[string]struct{}, len(exact)),
	}

	for _, e := range exact {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		w.exact[e] = struct{}{}
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid whitelist pattern %q: %w", p, err)
		}
		w.patterns = append(w.patterns, re)
	}

	return w, nil
}

// Match reports whether the value is allowed by an exact entry or a pattern.
// Empty values never match.
func (w *Whitelist) Match(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return false
	}

	if _, ok := w.exact[value]; ok {
		return true
	}

	for _, re := range w.patterns {
		if re.MatchString(value) {
			return true
		}
	}

	return false
}

// IsEmpty reports whether the whitelist has no entries at all.
func (w *Whitelist) IsEmpty() bool {
	return len(w.exact) == 0 && len(w.patterns) == 0
}

// Size returns the number of exact entries plus patterns, for logging.
func (w *Whitelist) Size() int {
	return len(w.exact) + len(w.patterns)
}
