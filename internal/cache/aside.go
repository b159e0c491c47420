package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix  = "user:%d"
	GroupKeyPrefix = "group:%s"
)

const (
	UserTTL  = 5 * time.Minute
	GroupTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// Aside reads key from Redis into dest, or calls load, stores its result for
// ttl and decodes it into dest. Without Redis it just calls load.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, dest *T, load func(context.Context) (T, error)) error {
	rdb := client
	if rdb != nil {
		raw, err := rdb.Get(ctx, key).Bytes()
		if err == nil {
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				return nil
			}
		} else if !errors.Is(err, redis.Nil) {
			// Fall through to the loader; a broken cache must not fail reads.
			rdb = nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return err
	}
	*dest = v

	if rdb != nil {
		if raw, err := json.Marshal(v); err == nil {
			rdb.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}

// Invalidate removes a cached key if Redis is configured.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}
