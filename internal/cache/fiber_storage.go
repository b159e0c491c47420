package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// FiberStorage exposes a key prefix of the Redis client as a fiber.Storage,
// so middleware state such as CSRF tokens is shared by every instance.
type FiberStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewFiberStorage(rdb *redis.Client, prefix string) *FiberStorage {
	return &FiberStorage{rdb: rdb, prefix: prefix}
}

// Get returns nil, nil for a missing key.
func (s *FiberStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	raw, err := s.rdb.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (s *FiberStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.rdb.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *FiberStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.rdb.Del(context.Background(), s.prefix+key).Err()
}

// Reset drops only the keys under the prefix.
func (s *FiberStorage) Reset() error {
	return deleteByPrefix(context.Background(), s.rdb, s.prefix)
}

// Close is a no-op; the client belongs to the caller.
func (s *FiberStorage) Close() error {
	return nil
}
