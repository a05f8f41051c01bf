package mssql

import (
	"context"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/artie-labs/dwmerge/clients/mssql/dialect"
	"github.com/artie-labs/dwmerge/clients/shared"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/db"
)

func Open(ctx context.Context, cfg config.Warehouse) (*shared.Warehouse, error) {
	pool, err := db.Open(ctx, "sqlserver", cfg.MSSQL.DSN())
	if err != nil {
		return nil, err
	}

	return shared.Connect(ctx, pool, dialect.MSSQLDialect{}, shared.Options{Schema: dialect.Schema(cfg.Schema), AuditColumns: cfg.AuditColumns})
}
