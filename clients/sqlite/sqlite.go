package sqlite

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/artie-labs/dwmerge/clients/shared"
	"github.com/artie-labs/dwmerge/clients/sqlite/dialect"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/db"
)

// Open connects to a SQLite file. SQLite has no schemas, so the configured one is ignored.
func Open(ctx context.Context, cfg config.Warehouse) (*shared.Warehouse, error) {
	pool, err := db.Open(ctx, "sqlite3", cfg.SQLite.DSN())
	if err != nil {
		return nil, err
	}

	return shared.Connect(ctx, pool, dialect.SQLiteDialect{}, shared.Options{AuditColumns: cfg.AuditColumns})
}
