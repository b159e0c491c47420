// Package cache provides Redis and Badger backed caching for the application:
// a shared Redis client, cache-aside helpers and the rendered page store.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// NewClient builds a client from either a redis:// URL or a host:port address.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	c := redis.NewClient(opts)
	c.AddHook(metricsHook{})
	return c, nil
}

// InitRedis initializes the shared Redis client. The application keeps
// running without Redis; on failure the shared client stays nil.
func InitRedis(addr string) {
	c, err := NewClient(addr)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable: invalid REDIS_URL, continuing without cache",
			slog.String("addr", addr), slog.String("error", err.Error()))
		client = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = c.Close()
		client = nil
		return
	}

	middleware.Logger.Info("Redis connected successfully")
	client = c
}

// SetClient replaces the shared client, e.g. with a miniredis-backed one in tests.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
