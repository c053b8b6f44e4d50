// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package store provides the PostgreSQL persistence layer.
package store

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/001_initial.sql
var migrationSQL string

// Connection retry policy: the database may come up after the server.
const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Connect opens a pgx pool and verifies it with a ping, retrying with
// exponential backoff while the database comes up.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.Warn("database not ready, retrying", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}
	return pool, nil
}

// Migrate applies the embedded schema. The DDL is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		return oops.Code("STORE_MIGRATE_FAILED").Wrap(err)
	}
	return nil
}
