package shared

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/artie-labs/dwmerge/lib/db"
	libsql "github.com/artie-labs/dwmerge/lib/sql"
)

// Connect pins a session out of [pool] and returns a warehouse over it. Closing the warehouse closes [pool].
func Connect(ctx context.Context, pool *sql.DB, dialect libsql.Dialect, options Options) (*Warehouse, error) {
	conn, closeFn, err := db.Session(ctx, pool)
	if err != nil {
		return nil, err
	}

	slog.Info("Connected to the warehouse", slog.String("schema", options.Schema))
	return NewWarehouse(conn, dialect, options, closeFn), nil
}
