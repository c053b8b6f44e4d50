// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package account_test

import (
	"context"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowspace/burrow/internal/account"
)

// plainHasher avoids argon2 cost in service tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", account.ErrEmptyPassword
	}
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, hash string) (bool, error) {
	rest, ok := strings.CutPrefix(hash, "plain:")
	if !ok {
		return false, oops.Code("ACCOUNT_INVALID_HASH").Errorf("invalid hash format")
	}
	return password == rest, nil
}

func newService() (*account.Service, *account.MemoryStore) {
	store := account.NewMemoryStore()
	return account.NewService(store, plainHasher{}), store
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	o, ok := oops.AsOops(err)
	require.True(t, ok, "expected an annotated error, got %v", err)
	code, _ := o.Code().(string)
	return code
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an account with a hashed password", func(t *testing.T) {
		svc, store := newService()
		a, err := svc.Register(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, "alice", a.Name)
		assert.Equal(t, "plain:hunter2hunter2", a.PasswordHash)

		stored, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Name, stored.Name)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		svc, _ := newService()
		for _, name := range []string{"x", "has spaces", "bang!", strings.Repeat("a", 25)} {
			_, err := svc.Register(ctx, name, "hunter2hunter2")
			require.Error(t, err, "name %q", name)
			assert.Equal(t, "ACCOUNT_INVALID_NAME", errCode(t, err))
		}
	})

	t.Run("rejects out-of-range passwords", func(t *testing.T) {
		svc, _ := newService()
		for _, pw := range []string{"short", strings.Repeat("p", 65)} {
			_, err := svc.Register(ctx, "alice", pw)
			require.Error(t, err)
			assert.Equal(t, "ACCOUNT_INVALID_PASSWORD", errCode(t, err))
		}
	})

	t.Run("rejects a taken name regardless of case", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Register(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "ALICE", "hunter2hunter2")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_NAME_TAKEN", errCode(t, err))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials return the account and bump last seen", func(t *testing.T) {
		svc, store := newService()
		a, err := svc.Register(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		before := a.LastSeenAt

		got, err := svc.Login(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.False(t, got.LastSeenAt.Before(before))

		stored, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, got.LastSeenAt, stored.LastSeenAt)
	})

	t.Run("wrong password and unknown name fail alike", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Register(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "alice", "wrong-password")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_INVALID_CREDENTIALS", errCode(t, err))

		_, err = svc.Login(ctx, "nobody", "hunter2hunter2")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_INVALID_CREDENTIALS", errCode(t, err))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	a, err := svc.Register(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	t.Run("rejects a malformed new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, a.ID, "hunter2hunter2", "short")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_INVALID_PASSWORD", errCode(t, err))
	})

	t.Run("requires the old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, a.ID, "not-the-password", "newpassword1")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_INVALID_CREDENTIALS", errCode(t, err))
	})

	t.Run("replaces the password", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, a.ID, "hunter2hunter2", "newpassword1"))

		_, err := svc.Login(ctx, "alice", "hunter2hunter2")
		assert.Error(t, err)
		_, err = svc.Login(ctx, "alice", "newpassword1")
		assert.NoError(t, err)
	})
}

func TestChangeAvatar(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	a, err := svc.Register(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.ChangeAvatar(ctx, a.ID, "rabbit-03"))
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "rabbit-03", got.Avatar)

	err = svc.ChangeAvatar(ctx, ulid.Make(), "rabbit-03")
	assert.Error(t, err)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	a, err := svc.Register(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	t.Run("requires the password", func(t *testing.T) {
		err := svc.Delete(ctx, a.ID, "not-the-password")
		require.Error(t, err)
		assert.Equal(t, "ACCOUNT_INVALID_CREDENTIALS", errCode(t, err))
	})

	t.Run("removes the account", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, a.ID, "hunter2hunter2"))
		_, err := store.GetByID(ctx, a.ID)
		require.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing accounts wrap the not-found error", func(t *testing.T) {
		store := account.NewMemoryStore()
		_, err := store.GetByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, account.ErrNotFound)
		_, err = store.GetByName(ctx, "nobody")
		assert.ErrorIs(t, err, account.ErrNotFound)
		assert.ErrorIs(t, store.Update(ctx, account.NewAccount("ghost", "h")), account.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, ulid.Make()), account.ErrNotFound)
	})

	t.Run("lookup by name is case-insensitive", func(t *testing.T) {
		store := account.NewMemoryStore()
		a := account.NewAccount("Alice", "h")
		require.NoError(t, store.Create(ctx, a))

		got, err := store.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("returned accounts are copies", func(t *testing.T) {
		store := account.NewMemoryStore()
		a := account.NewAccount("alice", "h")
		require.NoError(t, store.Create(ctx, a))

		got, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		got.Name = "mallory"

		again, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", again.Name)
	})
}
