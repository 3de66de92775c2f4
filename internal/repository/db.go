package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis connection used for sessions.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a Redis client. A failed ping is logged, not fatal; the
// client reconnects on its own once Redis is reachable.
func NewRedis(ctx context.Context, opts RedisOptions) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis ping failed, sessions unavailable until it recovers", "addr", opts.Addr, "error", err)
	}

	return client
}
