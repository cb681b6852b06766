// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const blacklistKeyPrefix = "blacklist:"

// blacklistEntry records why and when a session id was invalidated.
type blacklistEntry struct {
	Reason    string    `json:"reason"`
	AddedAt   time.Time `json:"added_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Blacklist holds terminated session ids. An id found here is rejected with
// the replay code regardless of cookie validity.
type Blacklist interface {
	// Add records a terminated session id with a reason.
	Add(ctx context.Context, id, reason string) error

	// Contains reports whether the id is blacklisted.
	Contains(ctx context.Context, id string) (bool, error)

	// Sweep removes entries past the retention window, returning the count.
	Sweep(ctx context.Context) (int, error)

	// Size returns the number of live entries.
	Size(ctx context.Context) (int, error)

	// Close releases resources. A shared BadgerDB handle is not closed.
	Close() error
}

// MemoryBlacklist is the in-process Blacklist.
type MemoryBlacklist struct {
	mu        sync.RWMutex
	entries   map[string]*blacklistEntry
	retention time.Duration
}

// NewMemoryBlacklist creates an empty blacklist with the given retention.
func NewMemoryBlacklist(retention time.Duration) *MemoryBlacklist {
	return &MemoryBlacklist{
		entries:   make(map[string]*blacklistEntry),
		retention: retention,
	}
}

// Add records a terminated session id.
func (m *MemoryBlacklist) Add(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.entries[id] = &blacklistEntry{
		Reason:    reason,
		AddedAt:   now,
		ExpiresAt: now.Add(m.retention),
	}
	blacklistSize.Set(float64(len(m.entries)))
	return nil
}

// Contains reports whether the id is blacklisted.
func (m *MemoryBlacklist) Contains(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	return time.Now().Before(entry.ExpiresAt), nil
}

// Sweep removes entries past retention.
func (m *MemoryBlacklist) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	now := time.Now()
	for id, entry := range m.entries {
		if now.After(entry.ExpiresAt) {
			delete(m.entries, id)
			count++
		}
	}
	blacklistSize.Set(float64(len(m.entries)))
	return count, nil
}

// Size returns the number of entries.
func (m *MemoryBlacklist) Size(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close releases the entry map.
func (m *MemoryBlacklist) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// BadgerBlacklist is a BadgerDB-backed Blacklist. Surviving restarts matters
// here: a replayed id must stay blocked even if the process bounces inside
// the retention window.
type BadgerBlacklist struct {
	db        *badger.DB
	retention time.Duration
}

// NewBadgerBlacklist creates a blacklist over a shared BadgerDB handle.
func NewBadgerBlacklist(db *badger.DB, retention time.Duration) *BadgerBlacklist {
	return &BadgerBlacklist{db: db, retention: retention}
}

func blacklistKey(id string) []byte {
	return []byte(blacklistKeyPrefix + id)
}

// Add records a terminated session id with a TTL matching retention.
func (b *BadgerBlacklist) Add(ctx context.Context, id, reason string) error {
	now := time.Now()
	data, err := json.Marshal(&blacklistEntry{
		Reason:    reason,
		AddedAt:   now,
		ExpiresAt: now.Add(b.retention),
	})
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(blacklistKey(id), data).WithTTL(b.retention))
	})
}

// Contains reports whether the id is blacklisted.
func (b *BadgerBlacklist) Contains(ctx context.Context, id string) (bool, error) {
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blacklistKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var entry blacklistEntry
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			found = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})
	return found, err
}

// Sweep removes entries past retention ahead of BadgerDB's own TTL handling.
func (b *BadgerBlacklist) Sweep(ctx context.Context) (int, error) {
	count := 0
	now := time.Now()

	err := b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(blacklistKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry blacklistEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if now.After(entry.ExpiresAt) {
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

// Size returns the number of entries.
func (b *BadgerBlacklist) Size(ctx context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(blacklistKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close is a no-op; the DB handle is shared.
func (b *BadgerBlacklist) Close() error {
	return nil
}
