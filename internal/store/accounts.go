// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/burrowspace/burrow/internal/account"
)

// DB is the subset of the pgx pool the repositories use. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements account.Store using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, name, password_hash, avatar, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		a.ID.String(),
		a.Name,
		a.PasswordHash,
		a.Avatar,
		a.CreatedAt,
		a.LastSeenAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_NAME_TAKEN").
				With("name", a.Name).
				Wrap(err)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("name", a.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, password_hash, avatar, created_at, last_seen_at
		FROM accounts
		WHERE id = $1
	`, id.String())

	a, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return a, nil
}

// GetByName retrieves an account by name (case-insensitive).
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, password_hash, avatar, created_at, last_seen_at
		FROM accounts
		WHERE LOWER(name) = LOWER($1)
	`, name)

	a, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("name", name).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_NAME_FAILED").
			With("operation", "get account by name").
			With("name", name).
			Wrap(err)
	}
	return a, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, a *account.Account) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			name = $2,
			password_hash = $3,
			avatar = $4,
			last_seen_at = $5
		WHERE id = $1
	`,
		a.ID.String(),
		a.Name,
		a.PasswordHash,
		a.Avatar,
		a.LastSeenAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", a.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", a.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr string
		a     account.Account
	)
	err := row.Scan(&idStr, &a.Name, &a.PasswordHash, &a.Avatar, &a.CreatedAt, &a.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	a.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return &a, nil
}

// Compile-time interface check.
var _ account.Store = (*AccountRepository)(nil)
