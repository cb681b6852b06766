// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// ExportJSON writes entries as a JSON array.
func ExportJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode audit export: %w", err)
	}
	return nil
}

// cefSeverity maps audit severities onto the CEF 0-10 scale.
func cefSeverity(s Severity) int {
	switch s {
	case SeverityLow:
		return 2
	case SeverityMedium:
		return 5
	case SeverityHigh:
		return 8
	case SeverityCritical:
		return 10
	default:
		return 0
	}
}

// cefEscape escapes the CEF header field separators.
func cefEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `|`, `\|`)
}

// cefExtEscape escapes CEF extension values.
func cefExtEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `=`, `\=`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// ExportCEF writes entries in Common Event Format, one line per entry, for
// ingestion by SIEM tooling.
//
// CEF:0|Authgate|authgate|1.0|<event>|<event>|<severity>|ext...
func ExportCEF(w io.Writer, entries []Entry) error {
	for i := range entries {
		e := &entries[i]

		ext := []string{
			"rt=" + e.Timestamp.UTC().Format("Jan 02 2006 15:04:05"),
			fmt.Sprintf("cn1=%d cn1Label=seq", e.Seq),
			"outcome=" + string(e.Status),
		}
		if e.IP != "" {
			ext = append(ext, "src="+cefExtEscape(e.IP))
		}
		if e.Username != "" {
			ext = append(ext, "suser="+cefExtEscape(e.Username))
		}
		if e.Method != "" {
			ext = append(ext, "requestMethod="+cefExtEscape(e.Method))
		}
		if e.URL != "" {
			ext = append(ext, "request="+cefExtEscape(e.URL))
		}
		if e.UserAgent != "" {
			ext = append(ext, "requestClientApplication="+cefExtEscape(e.UserAgent))
		}

		line := fmt.Sprintf("CEF:0|Authgate|authgate|1.0|%s|%s|%d|%s\n",
			cefEscape(e.Event), cefEscape(e.Event), cefSeverity(e.Severity),
			strings.Join(ext, " "))

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("failed to write CEF export: %w", err)
		}
	}
	return nil
}
