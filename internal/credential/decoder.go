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
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrDecryption indicates the ciphertext is malformed or was not
	// encrypted with the current public key.
	ErrDecryption = errors.New("failed to decrypt credential envelope")

	// ErrCredentialExpired indicates the envelope timestamp is older than
	// the allowed window.
	ErrCredentialExpired = errors.New("credential envelope expired")
)

// envelope is the plaintext recovered from a decrypted payload. Timestamp is
// Unix milliseconds as produced by the browser client.
type envelope struct {
	Password  string `json:"password"`
	Nonce     string `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
}

// Decoder recovers plaintext passwords from encrypted envelopes.
type Decoder struct {
	keys   *KeyPair
	nonces NonceRegistry
	maxAge time.Duration
	ttl    time.Duration
}

// NewDecoder creates a Decoder. maxAge bounds envelope timestamp age and
// nonceTTL is how long seen nonce hashes are retained.
func NewDecoder(keys *KeyPair, nonces NonceRegistry, maxAge, nonceTTL time.Duration) *Decoder {
	return &Decoder{keys: keys, nonces: nonces, maxAge: maxAge, ttl: nonceTTL}
}

// Decrypt recovers the plaintext password from a base64 envelope. sourceIP
// is recorded alongside the nonce for replay forensics.
//
// Checks run cheapest-first: decode, decrypt, timestamp, then the nonce
// registry write. The nonce is recorded only after every other check passes,
// so a rejected envelope does not burn its nonce.
func (d *Decoder) Decrypt(ctx context.Context, encoded, sourceIP string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		decryptTotal.WithLabelValues("malformed").Inc()
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, d.keys.private, ciphertext, nil)
	if err != nil {
		decryptTotal.WithLabelValues("decrypt_failed").Inc()
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		decryptTotal.WithLabelValues("malformed").Inc()
		return "", fmt.Errorf("%w: invalid payload", ErrDecryption)
	}
	if env.Password == "" || env.Nonce == "" || env.Timestamp == 0 {
		decryptTotal.WithLabelValues("malformed").Inc()
		return "", fmt.Errorf("%w: incomplete payload", ErrDecryption)
	}

	if age := time.Since(time.UnixMilli(env.Timestamp)); age > d.maxAge {
		decryptTotal.WithLabelValues("expired").Inc()
		return "", fmt.Errorf("%w: envelope is %s old", ErrCredentialExpired, age.Round(time.Second))
	}

	sum := sha256.Sum256([]byte(env.Nonce))
	if err := d.nonces.CheckAndStore(ctx, hex.EncodeToString(sum[:]), sourceIP, d.ttl); err != nil {
		if errors.Is(err, ErrNonceReplayed) {
			decryptTotal.WithLabelValues("replayed").Inc()
			return "", err
		}
		decryptTotal.WithLabelValues("registry_error").Inc()
		return "", fmt.Errorf("nonce registry check failed: %w", err)
	}

	decryptTotal.WithLabelValues("success").Inc()
	return env.Password, nil
}

// PublicKeyPEM exposes the public key for the public-key endpoint.
func (d *Decoder) PublicKeyPEM() string {
	return d.keys.PublicKeyPEM()
}
