// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StoreType selects the storage backend.
type StoreType string

const (
	// StoreMemory keeps sessions in process memory (default).
	StoreMemory StoreType = "memory"

	// StoreBadger persists sessions and the blacklist to BadgerDB.
	StoreBadger StoreType = "badger"
)

// StoreFactory builds the session store and blacklist for the configured
// backend. With the badger backend both share one DB handle.
type StoreFactory struct {
	db *badger.DB
}

// NewStoreFactory creates a factory. For the badger backend a DB is opened
// at path; for memory no database is touched.
func NewStoreFactory(storeType StoreType, path string) (*StoreFactory, error) {
	f := &StoreFactory{}

	if storeType == StoreBadger {
		opts := badger.DefaultOptions(path)
		opts.Logger = nil
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		f.db = db
	}
	return f, nil
}

// CreateStore returns the configured Store.
func (f *StoreFactory) CreateStore() Store {
	if f.db != nil {
		return NewBadgerStore(f.db)
	}
	return NewMemoryStore()
}

// CreateBlacklist returns the configured Blacklist with the given retention.
func (f *StoreFactory) CreateBlacklist(retention time.Duration) Blacklist {
	if f.db != nil {
		return NewBadgerBlacklist(f.db, retention)
	}
	return NewMemoryBlacklist(retention)
}

// DB exposes the shared handle so other components (nonce registry) can
// reuse it. Nil with the memory backend.
func (f *StoreFactory) DB() *badger.DB {
	return f.db
}

// Close closes the underlying database if one was opened.
func (f *StoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
