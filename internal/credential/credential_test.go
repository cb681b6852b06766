// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package credential

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()

	keys, err := LoadOrGenerateKeys(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrGenerateKeys failed: %v", err)
	}
	return NewDecoder(keys, NewMemoryNonceRegistry(), 5*time.Minute, 5*time.Minute)
}

// seal builds a valid envelope the way the browser client does.
func seal(t *testing.T, pub *rsa.PublicKey, password, nonce string, ts time.Time) string {
	t.Helper()

	plaintext, err := json.Marshal(map[string]interface{}{
		"password":  password,
		"nonce":     nonce,
		"timestamp": ts.UnixMilli(),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func TestDecryptRoundTrip(t *testing.T) {
	d := newTestDecoder(t)

	sealed := seal(t, d.keys.Public(), "S3cret-Passw0rd", "nonce-1", time.Now())

	got, err := d.Decrypt(context.Background(), sealed, "203.0.113.7")
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got != "S3cret-Passw0rd" {
		t.Errorf("recovered password = %q", got)
	}
}

func TestDecryptNonceReplay(t *testing.T) {
	d := newTestDecoder(t)

	first := seal(t, d.keys.Public(), "pw", "reused-nonce", time.Now())
	if _, err := d.Decrypt(context.Background(), first, "203.0.113.7"); err != nil {
		t.Fatalf("first Decrypt failed: %v", err)
	}

	// A fresh envelope with the same nonce must fail, not just the same bytes.
	second := seal(t, d.keys.Public(), "pw", "reused-nonce", time.Now())
	_, err := d.Decrypt(context.Background(), second, "203.0.113.7")
	if !errors.Is(err, ErrNonceReplayed) {
		t.Errorf("expected ErrNonceReplayed, got %v", err)
	}
}

func TestDecryptExpiredTimestamp(t *testing.T) {
	d := newTestDecoder(t)

	stale := seal(t, d.keys.Public(), "pw", "nonce-2", time.Now().Add(-5*time.Minute-time.Second))
	_, err := d.Decrypt(context.Background(), stale, "203.0.113.7")
	if !errors.Is(err, ErrCredentialExpired) {
		t.Errorf("expected ErrCredentialExpired, got %v", err)
	}
}

func TestRejectedEnvelopeDoesNotBurnNonce(t *testing.T) {
	d := newTestDecoder(t)

	stale := seal(t, d.keys.Public(), "pw", "nonce-3", time.Now().Add(-time.Hour))
	if _, err := d.Decrypt(context.Background(), stale, "203.0.113.7"); !errors.Is(err, ErrCredentialExpired) {
		t.Fatalf("expected ErrCredentialExpired, got %v", err)
	}

	fresh := seal(t, d.keys.Public(), "pw", "nonce-3", time.Now())
	if _, err := d.Decrypt(context.Background(), fresh, "203.0.113.7"); err != nil {
		t.Errorf("nonce from a rejected envelope must remain usable: %v", err)
	}
}

func TestDecryptMalformedInput(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!! not base64 !!!"},
		{"garbage ciphertext", base64.StdEncoding.EncodeToString([]byte("garbage"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decrypt(context.Background(), tt.encoded, "203.0.113.7")
			if !errors.Is(err, ErrDecryption) {
				t.Errorf("expected ErrDecryption, got %v", err)
			}
		})
	}
}

func TestDecryptIncompletePayload(t *testing.T) {
	d := newTestDecoder(t)

	plaintext, _ := json.Marshal(map[string]interface{}{"password": "pw"})
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, d.keys.Public(), plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	_, err = d.Decrypt(context.Background(), base64.StdEncoding.EncodeToString(ciphertext), "203.0.113.7")
	if !errors.Is(err, ErrDecryption) {
		t.Errorf("expected ErrDecryption for payload missing nonce, got %v", err)
	}
}

func TestKeysPersistAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKeys(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKeys failed: %v", err)
	}
	second, err := LoadOrGenerateKeys(dir)
	if err != nil {
		t.Fatalf("second LoadOrGenerateKeys failed: %v", err)
	}

	if first.PublicKeyPEM() != second.PublicKeyPEM() {
		t.Error("reload must return the persisted key pair, not a new one")
	}
	if !strings.Contains(first.PublicKeyPEM(), "BEGIN PUBLIC KEY") {
		t.Errorf("public PEM malformed: %s", first.PublicKeyPEM())
	}
}

func TestPrivateKeyFilePermissions(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadOrGenerateKeys(dir); err != nil {
		t.Fatalf("LoadOrGenerateKeys failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "private.pem"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("private key mode = %o, want 600", perm)
	}
}

func TestMemoryNonceRegistrySweep(t *testing.T) {
	r := NewMemoryNonceRegistry()
	ctx := context.Background()

	if err := r.CheckAndStore(ctx, "hash-a", "", time.Millisecond); err != nil {
		t.Fatalf("CheckAndStore failed: %v", err)
	}
	if err := r.CheckAndStore(ctx, "hash-b", "", time.Hour); err != nil {
		t.Fatalf("CheckAndStore failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	removed, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	size, err := r.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 1 {
		t.Errorf("size = %d, want 1", size)
	}

	// An expired hash may be reused.
	if err := r.CheckAndStore(ctx, "hash-a", "", time.Hour); err != nil {
		t.Errorf("expired nonce hash must be reusable: %v", err)
	}
}

func TestMemoryNonceRegistryClosed(t *testing.T) {
	r := NewMemoryNonceRegistry()
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := r.CheckAndStore(context.Background(), "hash", "", time.Minute)
	if !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("expected ErrRegistryClosed, got %v", err)
	}
}
