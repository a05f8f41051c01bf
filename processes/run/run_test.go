package run

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/dwmerge/clients/memory"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/telemetry/metrics"
	"github.com/artie-labs/dwmerge/lib/webhooks"
	"github.com/artie-labs/dwmerge/processes/merge"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const catalogYAML = `
systems:
  - name: MOLO
    tables:
      - name: marinas
        key: {kind: surrogate, columns: [id]}
        columns:
          - {name: id, type: integer}
          - {name: name, type: text}
      - name: slips
        key: {kind: surrogate, columns: [id]}
        references: [marinas]
        columns:
          - {name: id, type: integer}
          - {name: marina_id, type: integer}
  - name: STELLAR
    tables:
      - name: styles
        key: {kind: natural, columns: [code]}
        columns:
          - {name: code, type: text}
`

func write(t *testing.T, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		var event webhooks.Event
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&event))
		r.mu.Lock()
		r.events = append(r.events, event.Event)
		r.mu.Unlock()
	}))
	t.Cleanup(server.Close)
	return server
}

func newJob(t *testing.T, dump string, dryRun bool) (*Job, *memory.Warehouse, *recorder) {
	dir := t.TempDir()
	settings := &config.Settings{
		DryRun: dryRun,
		Config: config.Config{
			Warehouse:   config.Warehouse{Kind: constants.Memory, TablePrefix: "DW_"},
			CatalogPath: write(t, dir, "catalog.yaml", catalogYAML),
			Source: config.Source{
				Kind:   constants.File,
				Format: constants.Dump,
				File:   &config.FileSettings{Systems: map[string]string{"molo": write(t, dir, "molo.sql", dump)}},
			},
		},
	}

	events := &recorder{}
	client, err := webhooks.NewClient("key", events.server(t).URL, "run-1", nil)
	require.NoError(t, err)

	wh := memory.NewWarehouse()
	job := New(settings, "run-1", metrics.NullMetricsProvider{}, client)
	job.loadWarehouse = func(context.Context, config.Warehouse) (destination.Warehouse, error) {
		return wh, nil
	}
	return job, wh, events
}

func TestJob_Run(t *testing.T) {
	ctx := context.Background()
	{
		job, wh, events := newJob(t, `
INSERT INTO marinas (id, name) VALUES (1, 'North Cove');
INSERT INTO slips (id, marina_id) VALUES (10, 1), (11, 1);
`, false)

		result, err := job.Run(ctx)
		assert.NoError(t, err)
		// STELLAR is not configured as a source, so its tables are skipped.
		assert.Len(t, result.Tables, 2)
		assert.Equal(t, 2, result.Committed())
		assert.Len(t, wh.Rows("DW_MOLO_SLIPS"), 2)
		assert.Equal(t, []string{"run.started", "table.completed", "table.completed", "run.completed"}, events.events)
	}
	{
		// Dry runs roll everything back
		job, wh, _ := newJob(t, `INSERT INTO marinas (id, name) VALUES (1, 'North Cove');`, true)
		result, err := job.Run(ctx)
		assert.NoError(t, err)
		marinas, ok := result.Table("DW_MOLO_MARINAS")
		assert.True(t, ok)
		assert.Equal(t, 1, marinas.Inserted)
		assert.Empty(t, wh.Rows("DW_MOLO_MARINAS"))
	}
	{
		job, wh, events := newJob(t, `
INSERT INTO marinas (id, name) VALUES (1, 'North Cove');
INSERT INTO slips (id, marina_id) VALUES (10, 1), (10, 1);
`, false)
		result, err := job.Run(ctx)
		assert.True(t, merge.IsAbortError(err))
		assert.Equal(t, "DW_MOLO_SLIPS", result.Failed)
		assert.Len(t, wh.Rows("DW_MOLO_MARINAS"), 1)
		assert.Empty(t, wh.Rows("DW_MOLO_SLIPS"))
		assert.Equal(t, []string{"run.started", "table.completed", "table.failed", "run.failed"}, events.events)
	}
}

func TestJob_Run_Failures(t *testing.T) {
	ctx := context.Background()
	{
		job, _, _ := newJob(t, "", false)
		job.settings.Config.Source.File.Systems["molo"] = filepath.Join(t.TempDir(), "missing.sql")
		_, err := job.Run(ctx)
		assert.ErrorContains(t, err, `failed to fetch system "molo"`)
	}
	{
		job, _, _ := newJob(t, "", false)
		job.settings.Config.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := job.Run(ctx)
		assert.ErrorContains(t, err, "failed to load catalog")
	}
}

func TestLockName(t *testing.T) {
	assert.Equal(t, "postgres/dw", lockName(config.Warehouse{Kind: constants.Postgres, Schema: "dw"}))
}
