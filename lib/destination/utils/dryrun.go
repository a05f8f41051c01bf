package utils

import (
	"context"
	"log/slog"

	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
)

// DryRun wraps [wh] so that every merge runs in full but is rolled back instead of committed.
func DryRun(wh destination.Warehouse) destination.Warehouse {
	return dryRunWarehouse{Warehouse: wh}
}

type dryRunWarehouse struct {
	destination.Warehouse
}

func (d dryRunWarehouse) Table(desc *schema.Descriptor) (destination.Table, error) {
	table, err := d.Warehouse.Table(desc)
	if err != nil {
		return nil, err
	}
	return dryRunTable{Table: table}, nil
}

type dryRunTable struct {
	destination.Table
}

func (d dryRunTable) Begin(ctx context.Context) (destination.Tx, error) {
	tx, err := d.Table.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &dryRunTx{Tx: tx, table: d.Descriptor().Target()}, nil
}

type dryRunTx struct {
	destination.Tx
	table string
	done  bool
}

func (d *dryRunTx) Commit() error {
	slog.Info("Dry run, rolling back instead of committing", slog.String("table", d.table))
	d.done = true
	return d.Tx.Rollback()
}

func (d *dryRunTx) Rollback() error {
	if d.done {
		return nil
	}
	d.done = true
	return d.Tx.Rollback()
}
