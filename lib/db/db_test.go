package db

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	{
		// Retries a refused connection, then succeeds
		_, mock, err := sqlmock.NewWithDSN("open_retry", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing().WillReturnError(syscall.ECONNREFUSED)
		mock.ExpectPing()

		db, err := Open(ctx, "sqlmock", "open_retry")
		assert.NoError(t, err)
		assert.NotNil(t, db)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
	{
		// Other errors are not retried
		_, mock, err := sqlmock.NewWithDSN("open_fail", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing().WillReturnError(errors.New("password authentication failed"))

		_, err = Open(ctx, "sqlmock", "open_fail")
		assert.ErrorContains(t, err, "failed to validate the DB connection: password authentication failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	}
	{
		// Unknown driver
		_, err := Open(ctx, "nope", "")
		assert.ErrorContains(t, err, `failed to start a SQL client for "nope"`)
	}
}

func TestSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("SET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	conn, closeFn, err := Session(context.Background(), db)
	require.NoError(t, err)
	_, err = conn.ExecContext(context.Background(), "SET search_path TO warehouse")
	assert.NoError(t, err)

	assert.NoError(t, closeFn())
	assert.NoError(t, mock.ExpectationsWereMet())
}
