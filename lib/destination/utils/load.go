package utils

import (
	"context"
	"fmt"

	"github.com/artie-labs/dwmerge/clients/memory"
	"github.com/artie-labs/dwmerge/clients/mssql"
	"github.com/artie-labs/dwmerge/clients/mysql"
	"github.com/artie-labs/dwmerge/clients/postgres"
	"github.com/artie-labs/dwmerge/clients/snowflake"
	"github.com/artie-labs/dwmerge/clients/sqlite"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/destination"
)

// Load opens a session against the configured warehouse.
func Load(ctx context.Context, cfg config.Warehouse) (destination.Warehouse, error) {
	switch cfg.Kind {
	case constants.Postgres:
		return postgres.Open(ctx, cfg)
	case constants.MSSQL:
		return mssql.Open(ctx, cfg)
	case constants.MySQL:
		return mysql.Open(ctx, cfg)
	case constants.Snowflake:
		return snowflake.Open(ctx, cfg)
	case constants.SQLite:
		return sqlite.Open(ctx, cfg)
	case constants.Memory:
		return memory.NewWarehouse(), nil
	}

	return nil, fmt.Errorf("invalid warehouse kind: %q", cfg.Kind)
}
