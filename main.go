package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/logger"
	"github.com/artie-labs/dwmerge/lib/telemetry/metrics"
	"github.com/artie-labs/dwmerge/lib/webhooks"
	"github.com/artie-labs/dwmerge/processes/run"
)

func main() {
	settings, err := config.LoadSettings(os.Args[1:], true)
	if err != nil {
		logger.Fatal("Failed to load settings", slog.Any("err", err))
	}

	_logger, usingSentry := logger.NewLogger(settings)
	slog.SetDefault(_logger)

	runID := uuid.NewString()
	slog.Info("Config is loaded",
		slog.String("runID", runID),
		slog.String("warehouse", string(settings.Config.Warehouse.Kind)),
		slog.String("source", string(settings.Config.Source.Kind)),
		slog.String("format", string(settings.Config.Source.Format)),
		slog.Bool("dryRun", settings.DryRun),
		slog.Bool("sentry", usingSentry),
	)

	webhooksClient, err := webhooks.NewFromConfig(settings.Config.WebhookSettings, runID)
	if err != nil {
		logger.Fatal("Failed to create webhooks client", slog.Any("err", err))
	}

	ctx := context.Background()
	if _, err = run.New(settings, runID, metrics.LoadExporter(settings.Config), webhooksClient).Run(ctx); err != nil {
		logger.Fatal("Merge run failed", slog.Any("err", err))
	}
}
