package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/artie-labs/dwmerge/lib/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "dwmerge"

// releaseScript deletes the lock only if it is still held by the caller.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// store is the subset of [redis.Client] this package needs.
type store interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// LockedError is returned by [Checkpoint.Acquire] while another run holds the lock.
type LockedError struct {
	Warehouse string
	Holder    string
}

func (l LockedError) Error() string {
	return fmt.Sprintf("warehouse %q is locked by run %q", l.Warehouse, l.Holder)
}

func IsLockedError(err error) bool {
	return errors.As(err, &LockedError{})
}

// Record is what is kept about the last run against a warehouse.
type Record struct {
	RunID     string    `json:"runID"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Committed int       `json:"committed"`
	Total     int       `json:"total"`
	Failed    string    `json:"failed,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type Checkpoint struct {
	client store
	ttl    time.Duration
}

func New(cfg config.Redis) *Checkpoint {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	return newCheckpoint(client, time.Duration(cfg.LockTTLSeconds)*time.Second)
}

func newCheckpoint(client store, ttl time.Duration) *Checkpoint {
	return &Checkpoint{client: client, ttl: ttl}
}

func lockKey(warehouse string) string {
	return fmt.Sprintf("%s:lock:%s", keyPrefix, warehouse)
}

func lastRunKey(warehouse string) string {
	return fmt.Sprintf("%s:last-run:%s", keyPrefix, warehouse)
}

type Lock struct {
	client    store
	key       string
	runID     string
	warehouse string
}

// Acquire takes the run lock for [warehouse]. The lock expires on its own if the run dies without releasing it.
func (c *Checkpoint) Acquire(ctx context.Context, warehouse, runID string) (*Lock, error) {
	key := lockKey(warehouse)
	ok, err := c.client.SetNX(ctx, key, runID, c.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !ok {
		holder, err := c.client.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to read lock holder: %w", err)
		}
		return nil, LockedError{Warehouse: warehouse, Holder: holder}
	}

	slog.Info("Acquired run lock", slog.String("warehouse", warehouse), slog.Duration("ttl", c.ttl))
	return &Lock{client: c.client, key: key, runID: runID, warehouse: warehouse}, nil
}

// Release gives the lock back. A lock that already expired, or was taken over, is left alone.
func (l *Lock) Release(ctx context.Context) error {
	deleted, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.runID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	if deleted == 0 {
		slog.Warn("Run lock was no longer held", slog.String("warehouse", l.warehouse), slog.String("runID", l.runID))
	}
	return nil
}

func (c *Checkpoint) RecordRun(ctx context.Context, warehouse string, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err = c.client.Set(ctx, lastRunKey(warehouse), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write last run: %w", err)
	}
	return nil
}

// LastRun returns the last recorded run for [warehouse], if any.
func (c *Checkpoint) LastRun(ctx context.Context, warehouse string) (Record, bool, error) {
	data, err := c.client.Get(ctx, lastRunKey(warehouse)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read last run: %w", err)
	}

	var record Record
	if err = json.Unmarshal(data, &record); err != nil {
		return Record{}, false, fmt.Errorf("failed to unmarshal last run: %w", err)
	}
	return record, true, nil
}
