// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is used when an account doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service provides account operations backing the profile actions.
type Service struct {
	store  Store
	hasher PasswordHasher
}

// NewService creates an account service.
func NewService(store Store, hasher PasswordHasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Register creates a new account after validating name and password
// format and name uniqueness.
func (s *Service) Register(ctx context.Context, name, password string) (*Account, error) {
	if !namePattern.MatchString(name) {
		return nil, oops.Code("ACCOUNT_INVALID_NAME").
			With("name", name).
			Errorf("account name must be 2-24 word characters")
	}
	if !passwordPattern.MatchString(password) {
		return nil, oops.Code("ACCOUNT_INVALID_PASSWORD").
			Errorf("password must be 8-64 characters")
	}

	if _, err := s.store.GetByName(ctx, name); err == nil {
		return nil, oops.Code("ACCOUNT_NAME_TAKEN").
			With("name", name).
			Errorf("account name %q is taken", name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "check name uniqueness").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	a := NewAccount(name, hash)
	if err := s.store.Create(ctx, a); err != nil {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "persist account").
			Wrap(err)
	}
	return a, nil
}

// Login verifies credentials and returns the account. Uses
// constant-time operations to prevent timing-based name enumeration.
func (s *Service) Login(ctx context.Context, name, password string) (*Account, error) {
	a, lookupErr := s.store.GetByName(ctx, name)

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = a.PasswordHash
		exists = true
	case errors.Is(lookupErr, ErrNotFound):
	default:
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "get account by name").
			Wrap(lookupErr)
	}

	// Always verify, even against the dummy hash.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, errInvalidCredentials()
	}

	a.LastSeenAt = time.Now()
	// Best effort, login succeeds regardless.
	_ = s.store.Update(ctx, a) //nolint:errcheck

	return a, nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, id ulid.ULID, oldPassword, newPassword string) error {
	if !passwordPattern.MatchString(newPassword) {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			Errorf("password must be 8-64 characters")
	}
	a, err := s.verified(ctx, id, oldPassword)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("ACCOUNT_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	a.PasswordHash = hash
	if err := s.store.Update(ctx, a); err != nil {
		return oops.Code("ACCOUNT_CHANGE_PASSWORD_FAILED").
			With("operation", "persist account").
			Wrap(err)
	}
	return nil
}

// ChangeAvatar replaces the avatar token.
func (s *Service) ChangeAvatar(ctx context.Context, id ulid.ULID, avatar string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return oops.Code("ACCOUNT_CHANGE_AVATAR_FAILED").
			With("account_id", id.String()).
			Wrap(err)
	}
	a.Avatar = avatar
	if err := s.store.Update(ctx, a); err != nil {
		return oops.Code("ACCOUNT_CHANGE_AVATAR_FAILED").
			With("operation", "persist account").
			Wrap(err)
	}
	return nil
}

// Delete removes the account after verifying the password.
func (s *Service) Delete(ctx context.Context, id ulid.ULID, password string) error {
	if _, err := s.verified(ctx, id, password); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("account_id", id.String()).
			Wrap(err)
	}
	return nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Account, error) {
	return s.store.GetByID(ctx, id)
}

// verified loads the account and checks the password against it.
func (s *Service) verified(ctx context.Context, id ulid.ULID, password string) (*Account, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("account_id", id.String()).
			Wrap(err)
	}
	valid, err := s.hasher.Verify(password, a.PasswordHash)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		return nil, errInvalidCredentials()
	}
	return a, nil
}

func errInvalidCredentials() error {
	return oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid name or password")
}
