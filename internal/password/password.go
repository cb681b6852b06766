// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package password hashes and verifies credentials.
//
// New hashes always use PBKDF2-SHA512 with a per-password random salt, stored
// in a self-describing delimited form:
//
//	pbkdf2_sha512$<iterations>$<salt base64>$<digest base64>
//
// Verification additionally recognizes bcrypt hashes ($2a$/$2b$/$2y$
// prefixes) and a legacy salt-concatenation scheme
// (sha256$<salt>$<hex digest>) without forcing immediate rehash.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// canonicalTag identifies the canonical hash format.
	canonicalTag = "pbkdf2_sha512"

	// legacyTag identifies the legacy salt-concatenation format.
	legacyTag = "sha256"

	// DefaultIterations is the PBKDF2 iteration count for new hashes.
	DefaultIterations = 120000

	saltLength = 16
	keyLength  = 64
)

// ErrUnknownFormat is returned when a stored hash matches no known format.
var ErrUnknownFormat = errors.New("unknown password hash format")

// Hasher hashes and compares passwords.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher. Iteration counts below DefaultIterations are
// raised to it; weakening the KDF through configuration is not possible.
func NewHasher(iterations int) *Hasher {
	if iterations < DefaultIterations {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives the canonical stored form for a password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha512.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		canonicalTag,
		h.iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	), nil
}

// Compare verifies a supplied password against a stored form, dispatching on
// the format tag. All comparisons are constant time.
func (h *Hasher) Compare(supplied, stored string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, canonicalTag+"$"):
		return comparePBKDF2(supplied, stored)
	case strings.HasPrefix(stored, "$2a$"),
		strings.HasPrefix(stored, "$2b$"),
		strings.HasPrefix(stored, "$2y$"):
		// bcrypt comparison is timing-safe by design.
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return false, nil
			}
			return false, fmt.Errorf("bcrypt comparison failed: %w", err)
		}
		return true, nil
	case strings.HasPrefix(stored, legacyTag+"$"):
		return compareLegacy(supplied, stored)
	default:
		return false, ErrUnknownFormat
	}
}

// comparePBKDF2 verifies against the canonical self-describing form. The
// iteration count is read from the stored form, so old hashes remain
// verifiable after the default changes.
func comparePBKDF2(supplied, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false, fmt.Errorf("%w: malformed %s form", ErrUnknownFormat, canonicalTag)
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false, fmt.Errorf("%w: bad iteration count", ErrUnknownFormat)
	}

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: bad salt encoding", ErrUnknownFormat)
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("%w: bad digest encoding", ErrUnknownFormat)
	}

	derived := pbkdf2.Key([]byte(supplied), salt, iterations, len(expected), sha512.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

// compareLegacy verifies the sha256$<salt>$<hex> salt-concatenation scheme.
func compareLegacy(supplied, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		return false, fmt.Errorf("%w: malformed legacy form", ErrUnknownFormat)
	}

	expected, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: bad legacy digest encoding", ErrUnknownFormat)
	}

	sum := sha256.Sum256([]byte(parts[1] + supplied))
	return subtle.ConstantTimeCompare(sum[:], expected) == 1, nil
}

// NeedsRehash reports whether a stored form should be upgraded to the
// canonical format on next successful login.
func (h *Hasher) NeedsRehash(stored string) bool {
	if !strings.HasPrefix(stored, canonicalTag+"$") {
		return true
	}
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return true
	}
	iterations, err := strconv.Atoi(parts[1])
	return err != nil || iterations < h.iterations
}
