package deploy

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryTracker keeps the last trigger time for this process only.
// Reads and writes are atomic; a concurrent check-then-set is not.
type MemoryTracker struct {
	last atomic.Int64
}

// NewMemoryTracker constructs a MemoryTracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

// Get implements CooldownTracker.
func (m *MemoryTracker) Get(context.Context) (time.Time, error) {
	nanos := m.last.Load()
	if nanos == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, nanos), nil
}

// Set implements CooldownTracker.
func (m *MemoryTracker) Set(_ context.Context, at time.Time) error {
	m.last.Store(at.UnixNano())
	return nil
}

// DefaultTrackerKey is the Redis key shared by all panel instances.
const DefaultTrackerKey = "adminpanel:deploy:last_trigger"

// RedisTracker shares the last trigger time between instances.
type RedisTracker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisTracker constructs a RedisTracker. Values expire after ttl since
// they are irrelevant once the cooldown has elapsed.
func NewRedisTracker(client *redis.Client, key string, ttl time.Duration) *RedisTracker {
	if key == "" {
		key = DefaultTrackerKey
	}
	return &RedisTracker{client: client, key: key, ttl: ttl}
}

// Get implements CooldownTracker.
func (r *RedisTracker) Get(ctx context.Context) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis), nil
}

// Set implements CooldownTracker.
func (r *RedisTracker) Set(ctx context.Context, at time.Time) error {
	return r.client.Set(ctx, r.key, strconv.FormatInt(at.UnixMilli(), 10), r.ttl).Err()
}
