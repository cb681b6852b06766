// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package users provides the user lookup and creation interface the
// authentication flow consumes. The backing store is swappable; the bundled
// implementation is an in-memory map seeded with a bootstrap admin.
package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/govportal/authgate/internal/password"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists is returned when a username or email is taken.
	ErrAlreadyExists = errors.New("user already exists")
)

// User is an account record. PasswordHash is a stored form from the password
// package, never plaintext.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store is the user data access interface.
type Store interface {
	// ByUsername looks a user up by username (case-insensitive).
	ByUsername(ctx context.Context, username string) (*User, error)

	// ByID looks a user up by id.
	ByID(ctx context.Context, id string) (*User, error)

	// Create adds a user. Returns ErrAlreadyExists on username or email
	// collision.
	Create(ctx context.Context, u *User) error

	// UpdatePasswordHash replaces a user's stored hash (legacy rehash on
	// successful login).
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// MemoryStore is the in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*User
	names map[string]string // lowercased username -> id
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*User),
		names: make(map[string]string),
	}
}

// SeedAdmin bootstraps the admin account from configuration. The password
// is hashed before it is stored; an empty password leaves the store empty
// (useful for tests that create their own users).
func (m *MemoryStore) SeedAdmin(hasher *password.Hasher, username, plainPassword, email string) error {
	if username == "" || plainPassword == "" {
		return nil
	}
	hash, err := hasher.Hash(plainPassword)
	if err != nil {
		return err
	}
	return m.Create(context.Background(), &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
		Active:       true,
		CreatedAt:    time.Now(),
	})
}

// ByUsername looks a user up by username.
func (m *MemoryStore) ByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.names[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.byID[id]
	return &u, nil
}

// ByID looks a user up by id.
func (m *MemoryStore) ByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// Create adds a user.
func (m *MemoryStore) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, taken := m.names[key]; taken {
		return ErrAlreadyExists
	}
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) && u.Email != "" {
			return ErrAlreadyExists
		}
	}

	copied := *u
	m.byID[u.ID] = &copied
	m.names[key] = u.ID
	return nil
}

// UpdatePasswordHash replaces a stored hash.
func (m *MemoryStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}
