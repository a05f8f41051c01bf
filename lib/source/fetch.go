package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/artie-labs/dwmerge/lib/awslib"
	"github.com/artie-labs/dwmerge/lib/config"
	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/retry"
)

// Fetcher returns the raw export blob of a source system.
type Fetcher interface {
	Fetch(ctx context.Context, system string) ([]byte, error)
}

type FileFetcher struct {
	paths map[string]string
}

func NewFileFetcher(settings config.FileSettings) FileFetcher {
	return FileFetcher{paths: lowerKeys(settings.Systems)}
}

// lowerKeys matches catalog system names, which are always lowercase.
func lowerKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for key, value := range in {
		out[strings.ToLower(key)] = value
	}
	return out
}

func (f FileFetcher) Fetch(_ context.Context, system string) ([]byte, error) {
	path, ok := f.paths[system]
	if !ok {
		return nil, fmt.Errorf("no file configured for system %q", system)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

type objectStore interface {
	LatestObject(ctx context.Context, bucket, prefix, suffix string) (string, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Fetcher downloads the newest .gz object under each system's prefix.
type S3Fetcher struct {
	client    objectStore
	locations map[string]config.S3Location
	retryCfg  retry.RetryConfig
}

func NewS3Fetcher(ctx context.Context, settings config.S3Settings) (S3Fetcher, error) {
	awsCfg, err := awslib.LoadConfig(ctx, settings)
	if err != nil {
		return S3Fetcher{}, err
	}
	return newS3Fetcher(awslib.NewS3Client(awsCfg), settings.Systems), nil
}

func newS3Fetcher(client objectStore, locations map[string]config.S3Location) S3Fetcher {
	return S3Fetcher{
		client:    client,
		locations: lowerKeys(locations),
		retryCfg: retry.NewRetryConfig(retry.NewRetryConfigArgs{
			JitterBaseMs:   500,
			JitterMaxMs:    10_000,
			MaxAttempts:    4,
			IsRetryableErr: awslib.IsRetryableError,
		}),
	}
}

func (s S3Fetcher) Fetch(ctx context.Context, system string) ([]byte, error) {
	location, ok := s.locations[system]
	if !ok {
		return nil, fmt.Errorf("no s3 location configured for system %q", system)
	}

	return retry.WithRetries(ctx, s.retryCfg, func(_ int, _ error) ([]byte, error) {
		key, err := s.client.LatestObject(ctx, location.Bucket, location.Prefix, ".gz")
		if err != nil {
			return nil, err
		}
		return s.client.Download(ctx, location.Bucket, key)
	})
}

func NewFetcher(ctx context.Context, cfg config.Source) (Fetcher, error) {
	switch cfg.Kind {
	case constants.S3:
		return NewS3Fetcher(ctx, *cfg.S3)
	case constants.File:
		return NewFileFetcher(*cfg.File), nil
	}
	return nil, fmt.Errorf("invalid source kind: %q", cfg.Kind)
}

// FetchAll fetches the blobs of [systems] in parallel. The first failure cancels the rest.
func FetchAll(ctx context.Context, fetcher Fetcher, systems []string) (map[string][]byte, error) {
	blobs := make([][]byte, len(systems))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, system := range systems {
		group.Go(func() error {
			data, err := fetcher.Fetch(groupCtx, system)
			if err != nil {
				return fmt.Errorf("failed to fetch system %q: %w", system, err)
			}

			slog.Info("Fetched source blob", slog.String("system", system), slog.Int("bytes", len(data)))
			blobs[i] = data
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(systems))
	for i, system := range systems {
		out[system] = blobs[i]
	}
	return out, nil
}
