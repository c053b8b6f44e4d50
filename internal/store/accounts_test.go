// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowspace/burrow/internal/account"
)

func testAccount() *account.Account {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &account.Account{
		ID:           ulid.Make(),
		Name:         "alice",
		PasswordHash: "$argon2id$hash",
		Avatar:       "rabbit-03",
		CreatedAt:    now,
		LastSeenAt:   now,
	}
}

func TestAccountRepository_Create(t *testing.T) {
	a := testAccount()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   bool
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation maps to name taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: true,
			errMsg:  "taken",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
			errMsg:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			err = repo.Create(context.Background(), a)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	a := testAccount()
	columns := []string{"id", "name", "password_hash", "avatar", "created_at", "last_seen_at"}

	tests := []struct {
		name        string
		setupMock   func(mock pgxmock.PgxPoolIface)
		want        *account.Account
		wantErr     bool
		errNotFound bool
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).
					AddRow(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt)
				mock.ExpectQuery(`SELECT (.+) FROM accounts`).
					WithArgs(a.ID.String()).
					WillReturnRows(rows)
			},
			want: a,
		},
		{
			name: "missing maps to not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM accounts`).
					WithArgs(a.ID.String()).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr:     true,
			errNotFound: true,
		},
		{
			name: "malformed id in row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).
					AddRow("not-a-ulid", a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt)
				mock.ExpectQuery(`SELECT (.+) FROM accounts`).
					WithArgs(a.ID.String()).
					WillReturnRows(rows)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			got, err := repo.GetByID(context.Background(), a.ID)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errNotFound {
					assert.ErrorIs(t, err, account.ErrNotFound)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByName(t *testing.T) {
	a := testAccount()
	columns := []string{"id", "name", "password_hash", "avatar", "created_at", "last_seen_at"}

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows(columns).
			AddRow(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.CreatedAt, a.LastSeenAt)
		mock.ExpectQuery(`SELECT (.+) FROM accounts`).
			WithArgs("ALICE").
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByName(context.Background(), "ALICE")
		require.NoError(t, err)
		assert.Equal(t, a, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM accounts`).
			WithArgs("nobody").
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByName(context.Background(), "nobody")
		assert.ErrorIs(t, err, account.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Update(t *testing.T) {
	a := testAccount()

	tests := []struct {
		name        string
		setupMock   func(mock pgxmock.PgxPoolIface)
		wantErr     bool
		errNotFound bool
	}{
		{
			name: "successful update",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE accounts SET`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.LastSeenAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "zero rows maps to not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE accounts SET`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.LastSeenAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr:     true,
			errNotFound: true,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE accounts SET`).
					WithArgs(a.ID.String(), a.Name, a.PasswordHash, a.Avatar, a.LastSeenAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			err = repo.Update(context.Background(), a)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errNotFound {
					assert.ErrorIs(t, err, account.ErrNotFound)
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_Delete(t *testing.T) {
	id := ulid.Make()

	t.Run("successful delete", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM accounts`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := NewAccountRepository(mock)
		require.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM accounts`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := NewAccountRepository(mock)
		assert.ErrorIs(t, repo.Delete(context.Background(), id), account.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
