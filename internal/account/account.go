// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package account

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Validation rules for account fields.
var (
	namePattern     = regexp.MustCompile(`^\w{2,24}$`)
	passwordPattern = regexp.MustCompile(`^.{8,64}$`)
)

// ErrNotFound is returned by stores when no account matches.
var ErrNotFound = oops.Code("ACCOUNT_NOT_FOUND").Errorf("account not found")

// Account is a persisted user identity.
type Account struct {
	ID           ulid.ULID
	Name         string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

// NewAccount creates an account with a generated id.
func NewAccount(name, passwordHash string) *Account {
	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		LastSeenAt:   now,
	}
}

// Store persists accounts. Implementations must return ErrNotFound
// (wrapped or bare) when no account matches.
type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)
	GetByName(ctx context.Context, name string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id ulid.ULID) error
}
