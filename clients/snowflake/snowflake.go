package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/snowflakedb/gosnowflake"

	"github.com/artie-labs/dwmerge/clients/shared"
	"github.com/artie-labs/dwmerge/clients/snowflake/dialect"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/db"
)

func Open(ctx context.Context, cfg config.Warehouse) (*shared.Warehouse, error) {
	snowflakeCfg, err := cfg.Snowflake.ToConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get snowflake config: %w", err)
	}

	pool := sql.OpenDB(gosnowflake.NewConnector(gosnowflake.SnowflakeDriver{}, *snowflakeCfg))
	if err = db.Ping(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return shared.Connect(ctx, pool, dialect.SnowflakeDialect{}, shared.Options{Schema: cfg.Schema, AuditColumns: cfg.AuditColumns})
}
