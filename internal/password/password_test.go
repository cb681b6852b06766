// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package password

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashRoundTrip(t *testing.T) {
	h := NewHasher(DefaultIterations)

	stored, err := h.Hash("S3cret-Passw0rd")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := h.Compare("S3cret-Passw0rd", stored)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !ok {
		t.Error("correct password must verify")
	}

	ok, err = h.Compare("wrong-password", stored)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify")
	}
}

func TestHashFormatSelfDescribing(t *testing.T) {
	h := NewHasher(DefaultIterations)

	stored, err := h.Hash("anything")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		t.Fatalf("expected 4 delimited parts, got %d: %s", len(parts), stored)
	}
	if parts[0] != "pbkdf2_sha512" {
		t.Errorf("expected pbkdf2_sha512 tag, got %q", parts[0])
	}
	if parts[1] != "120000" {
		t.Errorf("expected 120000 iterations encoded, got %q", parts[1])
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := NewHasher(DefaultIterations)

	first, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password must differ (random salt)")
	}
}

func TestWeakIterationsRaised(t *testing.T) {
	h := NewHasher(1000)

	stored, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.Contains(stored, "$120000$") {
		t.Errorf("iteration floor not applied: %s", stored)
	}
}

func TestCompareBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt generate failed: %v", err)
	}

	h := NewHasher(DefaultIterations)

	ok, err := h.Compare("old-password", string(legacy))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !ok {
		t.Error("bcrypt hash must verify")
	}

	ok, err = h.Compare("wrong", string(legacy))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify against bcrypt hash")
	}
}

func TestCompareLegacySHA256(t *testing.T) {
	salt := "abc123"
	sum := sha256.Sum256([]byte(salt + "legacy-password"))
	stored := "sha256$" + salt + "$" + hex.EncodeToString(sum[:])

	h := NewHasher(DefaultIterations)

	ok, err := h.Compare("legacy-password", stored)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !ok {
		t.Error("legacy hash must verify")
	}

	ok, err = h.Compare("wrong", stored)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify against legacy hash")
	}
}

func TestCompareUnknownFormat(t *testing.T) {
	h := NewHasher(DefaultIterations)

	tests := []string{
		"md5$whatever",
		"plaintext",
		"",
		"pbkdf2_sha512$notanumber$c2FsdA==$ZGlnZXN0",
		"pbkdf2_sha512$120000$!!!$ZGlnZXN0",
	}

	for _, stored := range tests {
		ok, err := h.Compare("pw", stored)
		if ok {
			t.Errorf("malformed form %q must not verify", stored)
		}
		if err == nil {
			t.Errorf("malformed form %q must return an error", stored)
		}
		if !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat for %q, got %v", stored, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	h := NewHasher(DefaultIterations)

	canonical, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h.NeedsRehash(canonical) {
		t.Error("canonical hash must not need rehash")
	}

	if !h.NeedsRehash("sha256$salt$deadbeef") {
		t.Error("legacy hash must need rehash")
	}
	if !h.NeedsRehash("$2b$12$" + strings.Repeat("a", 53)) {
		t.Error("bcrypt hash must need rehash")
	}
	if !h.NeedsRehash("pbkdf2_sha512$100000$c2FsdA==$ZGlnZXN0") {
		t.Error("below-floor iteration count must need rehash")
	}
}
