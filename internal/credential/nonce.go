// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package credential

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/govportal/authgate/internal/logging"
)

var (
	// ErrNonceReplayed indicates an envelope nonce was already used within
	// its retention window.
	ErrNonceReplayed = errors.New("credential nonce already used (replay prevented)")

	// ErrRegistryClosed indicates the registry has been closed.
	ErrRegistryClosed = errors.New("nonce registry is closed")
)

// nonceRecord is the stored form of a seen nonce. Only the hash of the nonce
// is ever used as a key; the raw value is never persisted.
type nonceRecord struct {
	FirstSeen time.Time `json:"first_seen"`
	ExpiresAt time.Time `json:"expires_at"`
	SourceIP  string    `json:"source_ip,omitempty"`
}

// NonceRegistry tracks hashed envelope nonces for replay prevention.
type NonceRegistry interface {
	// CheckAndStore atomically checks whether the nonce hash has been seen
	// within its retention window and records it if not. Returns
	// ErrNonceReplayed on a repeat sighting.
	CheckAndStore(ctx context.Context, nonceHash, sourceIP string, ttl time.Duration) error

	// Sweep removes expired entries and returns the number removed.
	Sweep(ctx context.Context) (int, error)

	// Size returns the approximate number of live entries.
	Size(ctx context.Context) (int, error)

	// Close releases resources. A shared BadgerDB handle is not closed.
	Close() error
}

// MemoryNonceRegistry is the in-process registry. Entries are lost on
// restart, which shortens the replay window across restarts to zero; the
// envelope timestamp check still bounds exposure to MaxAge.
type MemoryNonceRegistry struct {
	mu      sync.Mutex
	entries map[string]*nonceRecord
	closed  bool
}

// NewMemoryNonceRegistry creates an empty in-memory registry.
func NewMemoryNonceRegistry() *MemoryNonceRegistry {
	return &MemoryNonceRegistry{entries: make(map[string]*nonceRecord)}
}

// CheckAndStore atomically checks and records a nonce hash.
func (r *MemoryNonceRegistry) CheckAndStore(ctx context.Context, nonceHash, sourceIP string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	now := time.Now()
	if existing, ok := r.entries[nonceHash]; ok && now.Before(existing.ExpiresAt) {
		nonceReplaysTotal.Inc()
		logging.Warn().
			Str("source_ip", sourceIP).
			Time("first_seen", existing.FirstSeen).
			Msg("Credential nonce replay detected")
		return ErrNonceReplayed
	}

	r.entries[nonceHash] = &nonceRecord{
		FirstSeen: now,
		ExpiresAt: now.Add(ttl),
		SourceIP:  sourceIP,
	}
	registrySize.Set(float64(len(r.entries)))
	return nil
}

// Sweep removes expired entries.
func (r *MemoryNonceRegistry) Sweep(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}

	count := 0
	now := time.Now()
	for hash, rec := range r.entries {
		if now.After(rec.ExpiresAt) {
			delete(r.entries, hash)
			count++
		}
	}
	registrySize.Set(float64(len(r.entries)))
	return count, nil
}

// Size returns the number of entries.
func (r *MemoryNonceRegistry) Size(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}
	return len(r.entries), nil
}

// Close closes the registry.
func (r *MemoryNonceRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.entries = nil
	return nil
}

// BadgerNonceRegistry is a BadgerDB-backed registry that survives restarts,
// keeping the replay window intact across a crash-and-restart cycle.
type BadgerNonceRegistry struct {
	db     *badger.DB
	prefix []byte
	mu     sync.RWMutex
	closed bool
}

// NewBadgerNonceRegistry creates a registry over a shared BadgerDB handle.
func NewBadgerNonceRegistry(db *badger.DB, prefix string) *BadgerNonceRegistry {
	if prefix == "" {
		prefix = "nonce:"
	}
	return &BadgerNonceRegistry{db: db, prefix: []byte(prefix)}
}

func (r *BadgerNonceRegistry) makeKey(nonceHash string) []byte {
	return append(append([]byte{}, r.prefix...), nonceHash...)
}

// CheckAndStore atomically checks and records a nonce hash.
func (r *BadgerNonceRegistry) CheckAndStore(ctx context.Context, nonceHash, sourceIP string, ttl time.Duration) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrRegistryClosed
	}
	r.mu.RUnlock()

	key := r.makeKey(nonceHash)
	now := time.Now()

	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			var existing nonceRecord
			if valErr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); valErr == nil && now.Before(existing.ExpiresAt) {
				nonceReplaysTotal.Inc()
				logging.Warn().
					Str("source_ip", sourceIP).
					Time("first_seen", existing.FirstSeen).
					Msg("Credential nonce replay detected")
				return ErrNonceReplayed
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(&nonceRecord{
			FirstSeen: now,
			ExpiresAt: now.Add(ttl),
			SourceIP:  sourceIP,
		})
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl))
	})
}

// Sweep removes expired entries. BadgerDB drops TTL-expired keys during
// compaction on its own; this forces them out on the sweep schedule.
func (r *BadgerNonceRegistry) Sweep(ctx context.Context) (int, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0, ErrRegistryClosed
	}
	r.mu.RUnlock()

	count := 0
	now := time.Now()

	err := r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = r.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var rec nonceRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				continue
			}
			if now.After(rec.ExpiresAt) {
				key := make([]byte, len(item.Key()))
				copy(key, item.Key())
				expired = append(expired, key)
			}
		}

		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	return count, err
}

// Size returns the approximate number of entries.
func (r *BadgerNonceRegistry) Size(ctx context.Context) (int, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0, ErrRegistryClosed
	}
	r.mu.RUnlock()

	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = r.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	registrySize.Set(float64(count))
	return count, err
}

// Close marks the registry closed without closing the shared DB handle.
func (r *BadgerNonceRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
