package merge

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/telemetry/metrics"
	"github.com/artie-labs/dwmerge/lib/telemetry/metrics/base"
	"github.com/artie-labs/dwmerge/lib/upsert"
)

// RowSource hands out the rows to merge for a table, already aligned to the descriptor.
type RowSource interface {
	Rows(ctx context.Context, desc *schema.Descriptor) (iter.Seq2[schema.Row, error], error)
}

type RunResult struct {
	// Tables holds a result for every table that was attempted, in merge order.
	Tables   []upsert.MergeResult
	Duration time.Duration
	// Failed is the warehouse table the run stopped at, empty when every table committed.
	Failed string
	Err    error
}

// Table returns the result for a warehouse table.
func (r RunResult) Table(target string) (upsert.MergeResult, bool) {
	for _, result := range r.Tables {
		if result.Table == target {
			return result, true
		}
	}
	return upsert.MergeResult{}, false
}

// Committed returns the number of tables whose merge was committed.
func (r RunResult) Committed() int {
	var count int
	for _, result := range r.Tables {
		if result.Committed {
			count++
		}
	}
	return count
}

type Option func(*Orchestrator)

func WithExecutor(executor *upsert.Executor) Option {
	return func(o *Orchestrator) {
		o.executor = executor
	}
}

func WithMetrics(client base.Client) Option {
	return func(o *Orchestrator) {
		o.metrics = client
	}
}

// WithSystems limits the run to the named source systems. Catalog order is kept.
func WithSystems(systems ...string) Option {
	return func(o *Orchestrator) {
		o.systems = systems
	}
}

// Orchestrator merges every catalog table, in catalog order, over a single warehouse session.
type Orchestrator struct {
	catalog  *schema.Catalog
	wh       destination.Warehouse
	src      RowSource
	executor *upsert.Executor
	metrics  base.Client
	systems  []string
}

func New(catalog *schema.Catalog, wh destination.Warehouse, src RowSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  catalog,
		wh:       wh,
		src:      src,
		executor: upsert.NewExecutor(),
		metrics:  metrics.NullMetricsProvider{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) tables() []*schema.Descriptor {
	if len(o.systems) == 0 {
		return o.catalog.Tables()
	}

	var tables []*schema.Descriptor
	for _, system := range o.systems {
		tables = append(tables, o.catalog.TablesForSystem(system)...)
	}
	return tables
}

// RunAll merges the tables one after another and stops at the first failure.
func (o *Orchestrator) RunAll(ctx context.Context) (RunResult, error) {
	start := time.Now()
	tables := o.tables()
	var run RunResult
	for _, desc := range tables {
		result, err := o.runTable(ctx, desc)
		run.Tables = append(run.Tables, result)
		if err != nil {
			run.Failed = desc.Target()
			run.Err = &AbortError{Table: desc.Target(), Err: err}
			break
		}
	}

	run.Duration = time.Since(start)
	o.logSummary(run, len(tables))
	o.metrics.Timing("run", run.Duration, map[string]string{
		"what":   whatFor(run.Err),
		"tables": strconv.Itoa(len(tables)),
	})

	return run, run.Err
}

func (o *Orchestrator) runTable(ctx context.Context, desc *schema.Descriptor) (upsert.MergeResult, error) {
	logger := slog.With(slog.String("system", desc.System()), slog.String("table", desc.Target()))
	logger.Info("Merging table...")

	result, err := o.mergeTable(ctx, desc)
	if result.Table == "" {
		result = upsert.MergeResult{Table: desc.Target(), Err: err}
	}

	tags := map[string]string{
		"what":   whatFor(err),
		"table":  desc.Target(),
		"system": desc.System(),
	}
	if err != nil {
		tags["reason"] = string(Classify(err))
		logger.Error("Failed to merge table", slog.String("reason", tags["reason"]), slog.Any("err", err))
	} else {
		logger.Info("Merged table",
			slog.Int("inserted", result.Inserted),
			slog.Int("updated", result.Updated),
			slog.Int("unchanged", result.Unchanged),
			slog.Duration("duration", result.Duration),
		)
		o.metrics.Count("rows.inserted", int64(result.Inserted), tags)
		o.metrics.Count("rows.updated", int64(result.Updated), tags)
		o.metrics.Count("rows.unchanged", int64(result.Unchanged), tags)
	}
	o.metrics.Timing("merge", result.Duration, tags)
	return result, err
}

func (o *Orchestrator) mergeTable(ctx context.Context, desc *schema.Descriptor) (upsert.MergeResult, error) {
	rows, err := o.src.Rows(ctx, desc)
	if err != nil {
		return upsert.MergeResult{}, fmt.Errorf("failed to load rows for %q: %w", desc.ID(), err)
	}

	table, err := o.wh.Table(desc)
	if err != nil {
		return upsert.MergeResult{}, fmt.Errorf("failed to open table: %w", err)
	}

	return o.executor.Merge(ctx, table, rows)
}

func (o *Orchestrator) logSummary(run RunResult, total int) {
	attrs := []any{
		slog.Int("committed", run.Committed()),
		slog.Int("total", total),
		slog.Duration("duration", run.Duration),
	}
	if run.Err == nil {
		slog.Info(fmt.Sprintf("Run complete, processed %d/%d tables", run.Committed(), total), attrs...)
		return
	}

	attrs = append(attrs, slog.String("failedTable", run.Failed), slog.String("reason", string(Classify(run.Err))))
	slog.Error(fmt.Sprintf("Run aborted, processed %d/%d tables", run.Committed(), total), attrs...)
}

func whatFor(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
