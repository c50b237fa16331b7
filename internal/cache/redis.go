// Package cache connects to Redis, which backs the task queue and the
// delivery markers of task handlers.
package cache

import (
	"context"
	"fmt"
	"time"

	"authd/internal/config"
	"authd/internal/logging"

	"github.com/redis/go-redis/v9"
)

const (
	connectAttempts = 5
	initialBackoff  = 500 * time.Millisecond
)

// Options returns the go-redis options for cfg
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Connect creates a client and waits until Redis answers a PING. It retries
// with exponential backoff so the process survives a broker that starts after it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))

	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}

		logging.FromContext(ctx).Warn("redis not ready",
			"addr", cfg.Addr(), "attempt", attempt, "error", err)

		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
}
