// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package credential

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/govportal/authgate/internal/logging"
)

const (
	privateKeyFileName = "private.pem"
	publicKeyFileName  = "public.pem"

	// keyBits is fixed; changing it would orphan envelopes encrypted by
	// clients still holding the old public key.
	keyBits = 2048
)

// KeyPair holds the cached RSA key pair used for credential transport.
type KeyPair struct {
	private   *rsa.PrivateKey
	publicPEM string
}

// LoadOrGenerateKeys returns the persisted key pair from dir, generating and
// persisting a new one on first run. The directory is created with mode 0700
// and the private key file with mode 0600.
func LoadOrGenerateKeys(dir string) (*KeyPair, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	privatePath := filepath.Join(dir, privateKeyFileName)

	if data, err := os.ReadFile(privatePath); err == nil {
		kp, err := parsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse persisted private key: %w", err)
		}
		logging.Debug().Str("path", privatePath).Msg("Loaded credential key pair")
		return kp, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist private key: %w", err)
	}

	kp := &KeyPair{private: key, publicPEM: encodePublicPEM(&key.PublicKey)}

	// The public half is world-readable; it is served over the wire anyway.
	publicPath := filepath.Join(dir, publicKeyFileName)
	if err := os.WriteFile(publicPath, []byte(kp.publicPEM), 0o644); err != nil {
		return nil, fmt.Errorf("failed to persist public key: %w", err)
	}

	logging.Info().Str("dir", dir).Int("bits", keyBits).Msg("Generated credential key pair")
	return kp, nil
}

func parsePrivateKey(data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Keys written by other tooling may use PKCS#8.
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, err
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("persisted key is not an RSA key")
		}
		key = rsaKey
	}

	return &KeyPair{private: key, publicPEM: encodePublicPEM(&key.PublicKey)}, nil
}

func encodePublicPEM(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		// MarshalPKIXPublicKey cannot fail for a valid *rsa.PublicKey.
		panic(fmt.Sprintf("credential: failed to marshal public key: %v", err))
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// PublicKeyPEM returns the PEM-encoded public key for the public-key endpoint.
func (k *KeyPair) PublicKeyPEM() string {
	return k.publicPEM
}

// Public returns the public half for in-process encryption (tests, tooling).
func (k *KeyPair) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}
