package run

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/artie-labs/dwmerge/lib/checkpoint"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/destination/utils"
	"github.com/artie-labs/dwmerge/lib/redact"
	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/source"
	"github.com/artie-labs/dwmerge/lib/telemetry/metrics/base"
	"github.com/artie-labs/dwmerge/lib/upsert"
	"github.com/artie-labs/dwmerge/lib/webhooks"
	"github.com/artie-labs/dwmerge/processes/merge"
)

type Job struct {
	settings *config.Settings
	runID    string
	metrics  base.Client
	webhooks *webhooks.Client

	// Overridable in tests.
	loadWarehouse func(ctx context.Context, cfg config.Warehouse) (destination.Warehouse, error)
	fetcher       source.Fetcher
	checkpoint    *checkpoint.Checkpoint
}

func New(settings *config.Settings, runID string, metricsClient base.Client, webhooksClient *webhooks.Client) *Job {
	job := &Job{
		settings:      settings,
		runID:         runID,
		metrics:       metricsClient,
		webhooks:      webhooksClient,
		loadWarehouse: utils.Load,
	}
	if settings.Config.Redis != nil {
		job.checkpoint = checkpoint.New(*settings.Config.Redis)
	}
	return job
}

// lockName identifies the warehouse a run writes to.
func lockName(cfg config.Warehouse) string {
	return fmt.Sprintf("%s/%s", cfg.Kind, cfg.Schema)
}

// systems returns the catalog systems the source has data for, in catalog order.
func systems(catalog *schema.Catalog, cfg config.Source) []string {
	configured := cfg.Systems()
	var out []string
	for _, system := range catalog.Systems() {
		if slices.Contains(configured, system) {
			out = append(out, system)
		} else {
			slog.Warn("Source has no data for system, skipping", slog.String("system", system))
		}
	}
	return out
}

// Run fetches the source blobs and merges every table of the catalog.
func (j *Job) Run(ctx context.Context) (merge.RunResult, error) {
	cfg := j.settings.Config
	startedAt := time.Now().UTC()

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return merge.RunResult{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	if j.checkpoint != nil {
		lock, err := j.checkpoint.Acquire(ctx, lockName(cfg.Warehouse), j.runID)
		if err != nil {
			if checkpoint.IsLockedError(err) {
				j.webhooks.Notify(ctx, webhooks.RunLocked, map[string]any{"error": err.Error()})
			}
			return merge.RunResult{}, err
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				slog.Warn("Failed to release run lock", slog.Any("err", err))
			}
		}()
	}

	names := systems(catalog, cfg.Source)
	j.webhooks.Notify(ctx, webhooks.RunStarted, map[string]any{"systems": names, "dry_run": j.settings.DryRun})

	result, err := j.merge(ctx, catalog, names)
	j.report(ctx, result, err)

	if j.checkpoint != nil {
		record := checkpoint.Record{
			RunID:     j.runID,
			StartedAt: startedAt,
			EndedAt:   time.Now().UTC(),
			Committed: result.Committed(),
			Total:     len(catalog.Tables()),
			Failed:    result.Failed,
			Reason:    string(merge.Classify(err)),
		}
		if recordErr := j.checkpoint.RecordRun(ctx, lockName(cfg.Warehouse), record); recordErr != nil {
			slog.Warn("Failed to record run", slog.Any("err", recordErr))
		}
	}

	return result, err
}

func (j *Job) merge(ctx context.Context, catalog *schema.Catalog, systems []string) (merge.RunResult, error) {
	cfg := j.settings.Config
	fetcher := j.fetcher
	if fetcher == nil {
		var err error
		if fetcher, err = source.NewFetcher(ctx, cfg.Source); err != nil {
			return merge.RunResult{}, err
		}
	}

	blobs, err := source.FetchAll(ctx, fetcher, systems)
	if err != nil {
		return merge.RunResult{}, err
	}

	src, err := source.New(cfg.Source.Format, blobs)
	if err != nil {
		return merge.RunResult{}, err
	}

	wh, err := j.loadWarehouse(ctx, cfg.Warehouse)
	if err != nil {
		return merge.RunResult{}, fmt.Errorf("failed to connect to the warehouse: %w", err)
	}
	defer func() {
		if err := wh.Close(); err != nil {
			slog.Warn("Failed to close the warehouse", slog.Any("err", err))
		}
	}()

	if j.settings.DryRun {
		slog.Info("Dry run, nothing will be committed")
		wh = utils.DryRun(wh)
	}

	orchestrator := merge.New(catalog, wh, src,
		merge.WithExecutor(upsert.NewExecutor(upsert.WithPolicy(cfg.Comparison))),
		merge.WithMetrics(j.metrics),
		merge.WithSystems(systems...),
	)
	return orchestrator.RunAll(ctx)
}

func (j *Job) report(ctx context.Context, result merge.RunResult, err error) {
	for _, table := range result.Tables {
		properties := webhooks.TableProperties{
			Table:     table.Table,
			Inserted:  table.Inserted,
			Updated:   table.Updated,
			Unchanged: table.Unchanged,
		}

		eventType := webhooks.TableCompleted
		if table.Err != nil {
			eventType = webhooks.TableFailed
			properties.Reason = string(merge.Classify(table.Err))
			properties.Error = redact.Error(table.Err)
		}
		j.webhooks.Notify(ctx, eventType, webhooks.TableEvent(properties))
	}

	summary := map[string]any{
		"committed":   result.Committed(),
		"duration_ms": result.Duration.Milliseconds(),
	}
	if err != nil {
		summary["failed_table"] = result.Failed
		summary["reason"] = string(merge.Classify(err))
		summary["error"] = redact.Error(err)
		j.webhooks.Notify(ctx, webhooks.RunFailed, summary)
		return
	}
	j.webhooks.Notify(ctx, webhooks.RunCompleted, summary)
}
