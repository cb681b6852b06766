// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package upload

import (
	"fmt"
	"strings"
)

// dangerousExtensions are suffixes that must never reach disk regardless of
// content: executables, scripts, and server config files.
var dangerousExtensions = map[string]bool{
	"exe": true, "dll": true, "so": true, "dylib": true, "com": true,
	"scr": true, "msi": true, "bat": true, "cmd": true, "ps1": true,
	"sh": true, "bash": true, "zsh": true, "csh": true,
	"php": true, "php3": true, "php4": true, "php5": true, "phtml": true,
	"pl": true, "py": true, "rb": true, "cgi": true,
	"jsp": true, "asp": true, "aspx": true,
	"js": true, "mjs": true, "vbs": true, "wsf": true, "hta": true,
	"htaccess": true, "htpasswd": true, "ini": true, "conf": true,
}

// safeFilenameChar reports whether c may appear in a stored filename.
func safeFilenameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}

// ValidateFilename rejects names that could escape the upload directory or
// smuggle an executable suffix. The checks are independent of content
// validation; both must pass.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty filename", ErrBadFilename)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: null byte in filename", ErrBadFilename)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: path traversal in filename", ErrBadFilename)
	}
	if strings.ContainsAny(name, "<>:\"|?*;&$`'") {
		return fmt.Errorf("%w: disallowed characters in filename", ErrBadFilename)
	}

	// Every extension in the chain is checked, so photo.php.png is caught
	// even though its final suffix looks harmless.
	parts := strings.Split(strings.ToLower(name), ".")
	if len(parts) > 3 {
		return fmt.Errorf("%w: too many extensions", ErrBadFilename)
	}
	for _, ext := range parts[1:] {
		if dangerousExtensions[ext] {
			return fmt.Errorf("%w: dangerous extension %q", ErrBadFilename, ext)
		}
	}
	return nil
}

// SanitizeFilename maps a validated name onto the safe charset. Runs of
// unsafe characters collapse to a single underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnsafe := false
	for _, c := range name {
		if safeFilenameChar(c) {
			b.WriteRune(c)
			lastUnsafe = false
			continue
		}
		if !lastUnsafe {
			b.WriteByte('_')
			lastUnsafe = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}
