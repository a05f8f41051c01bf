package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/artie-labs/dwmerge/lib/retry"
)

const (
	maxAttempts     = 5
	sleepIntervalMs = 500
	sleepMaxMs      = 10_000
)

// Store is what a warehouse session needs. Both [*sql.DB] and [*sql.Conn] satisfy it.
type Store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var pingRetryConfig = retry.NewRetryConfig(retry.NewRetryConfigArgs{
	JitterBaseMs:   sleepIntervalMs,
	JitterMaxMs:    sleepMaxMs,
	MaxAttempts:    maxAttempts,
	IsRetryableErr: IsRetryableError,
})

// Open opens a pool for [driverName] and pings it, retrying connection errors with jittered backoff.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to start a SQL client for %q: %w", driverName, err)
	}

	if err = Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Ping validates the connection. Use it for pools built by a driver connector rather than [Open].
func Ping(ctx context.Context, db *sql.DB) error {
	err := pingRetryConfig.WithRetries(ctx, func(attempt int, _ error) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to validate the DB connection: %w", err)
	}
	return nil
}

// Session pins a single connection out of [db] so every statement of a run goes through the same session.
// The pool stays open until the returned close func is called.
func Session(ctx context.Context, db *sql.DB) (*sql.Conn, func() error, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to acquire a connection: %w", err)
	}

	closeFn := func() error {
		connErr := conn.Close()
		if dbErr := db.Close(); dbErr != nil {
			slog.Warn("Failed to close the connection pool", slog.Any("err", dbErr))
			if connErr == nil {
				return dbErr
			}
		}
		return connErr
	}
	return conn, closeFn, nil
}
