// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package account

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MemoryStore is an in-memory Store for development runs without a
// database, and for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[ulid.ULID]*Account
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[ulid.ULID]*Account)}
}

// Create stores a new account.
func (m *MemoryStore) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Name, a.Name) {
			return oops.Code("ACCOUNT_NAME_TAKEN").
				With("name", a.Name).
				Errorf("account name %q is taken", a.Name)
		}
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

// GetByID retrieves an account by id.
func (m *MemoryStore) GetByID(_ context.Context, id ulid.ULID) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, oops.With("id", id.String()).Wrap(ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

// GetByName retrieves an account by name (case-insensitive).
func (m *MemoryStore) GetByName(_ context.Context, name string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Name, name) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, oops.With("name", name).Wrap(ErrNotFound)
}

// Update updates an existing account.
func (m *MemoryStore) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return oops.With("id", a.ID.String()).Wrap(ErrNotFound)
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

// Delete removes an account.
func (m *MemoryStore) Delete(_ context.Context, id ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return oops.With("id", id.String()).Wrap(ErrNotFound)
	}
	delete(m.accounts, id)
	return nil
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)
