// Package stats publishes lock event counters to Redis, so contention on locks
// with the same name can be compared across processes. It only counts; the
// lock itself stays local to each process.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/soulteary/eqlock/lock"
)

// Recorder counts lock events in a Redis hash per lock name.
// Each event kind is a hash field incremented with HINCRBY.
type Recorder struct {
	client *redis.Client
	cfg    Config
}

var _ lock.Observer = (*Recorder)(nil)

// NewRecorder creates a new Redis stats recorder
func NewRecorder(client *redis.Client, cfg Config) *Recorder {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}
	return &Recorder{
		client: client,
		cfg:    cfg,
	}
}

// NewRecorderWithDefaults creates a new Redis stats recorder with default configuration
func NewRecorderWithDefaults(client *redis.Client) *Recorder {
	return NewRecorder(client, DefaultConfig())
}

// Key returns the Redis hash key holding the counters for the named lock
func (r *Recorder) Key(name string) string {
	if r.cfg.KeyPrefix == "" {
		return name
	}
	return r.cfg.KeyPrefix + name
}

// Observe implements lock.Observer.
// Redis failures are logged and never reach the lock caller.
func (r *Recorder) Observe(ctx context.Context, e lock.Event) {
	if r.client == nil {
		return
	}

	// the caller may be cancelled (EventCancelled), the counter should still land
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.OperationTimeout)
	defer cancel()

	if err := r.client.HIncrBy(opCtx, r.Key(e.Lock), string(e.Kind), 1).Err(); err != nil {
		slog.Warn("eqlock: stats increment failed", "lock", e.Lock, "event", e.Kind, "error", err)
	}
}

// Snapshot returns the counters recorded for the named lock, keyed by event kind
func (r *Recorder) Snapshot(ctx context.Context, name string) (map[lock.EventKind]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OperationTimeout)
	defer cancel()

	raw, err := r.client.HGetAll(opCtx, r.Key(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	counts := make(map[lock.EventKind]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid counter %q: %w", field, err)
		}
		counts[lock.EventKind(field)] = n
	}
	return counts, nil
}

// Reset deletes the counters recorded for the named lock
func (r *Recorder) Reset(ctx context.Context, name string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OperationTimeout)
	defer cancel()

	if err := r.client.Del(opCtx, r.Key(name)).Err(); err != nil {
		return fmt.Errorf("failed to reset stats: %w", err)
	}
	return nil
}
