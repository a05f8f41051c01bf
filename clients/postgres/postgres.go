package postgres

import (
	"context"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/artie-labs/dwmerge/clients/postgres/dialect"
	"github.com/artie-labs/dwmerge/clients/shared"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/db"
)

func Open(ctx context.Context, cfg config.Warehouse) (*shared.Warehouse, error) {
	pool, err := db.Open(ctx, "pgx", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}

	return shared.Connect(ctx, pool, dialect.PostgresDialect{}, shared.Options{Schema: cfg.Schema, AuditColumns: cfg.AuditColumns})
}
