// Package cache opens the optional Redis connection shared by the deploy
// cooldown tracker.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
	pingTimeout = 5 * time.Second
)

// New connects to addr and pings it. Callers treat an error as "run without Redis".
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(Options(addr))

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}

// Options returns the client options used for addr. Short I/O timeouts keep a
// slow Redis from stalling deploy requests.
func Options(addr string) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolSize:     10,
	}
}
