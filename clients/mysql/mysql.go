package mysql

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"github.com/artie-labs/dwmerge/clients/mysql/dialect"
	"github.com/artie-labs/dwmerge/clients/shared"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/db"
)

// Open connects to MySQL. The schema defaults to the database named in the DSN.
func Open(ctx context.Context, cfg config.Warehouse) (*shared.Warehouse, error) {
	pool, err := db.Open(ctx, "mysql", cfg.MySQL.DSN())
	if err != nil {
		return nil, err
	}

	return shared.Connect(ctx, pool, dialect.MySQLDialect{}, shared.Options{Schema: cfg.Schema, AuditColumns: cfg.AuditColumns})
}
