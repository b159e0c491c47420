package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/observability"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

// PageStore holds rendered pages keyed by an opaque string. Entries expire
// after their TTL; Clear drops every entry at once. Nothing invalidates an
// entry when the underlying data changes.
type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
	Backend() string
}

// PageKeyPrefix namespaces rendered pages inside shared stores.
const PageKeyPrefix = "page:"

// RedisPageStore keeps pages in Redis under PageKeyPrefix.
type RedisPageStore struct {
	rdb *redis.Client
}

// NewRedisPageStore returns a PageStore backed by rdb.
func NewRedisPageStore(rdb *redis.Client) *RedisPageStore {
	return &RedisPageStore{rdb: rdb}
}

func (s *RedisPageStore) Backend() string { return config.CacheBackendRedis }

func (s *RedisPageStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.StartCache(ctx, s.Backend(), "get")
	raw, err := s.rdb.Get(ctx, PageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.EndSpan(span, nil)
		return nil, false, nil
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisPageStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := observability.StartCache(ctx, s.Backend(), "set")
	err := s.rdb.Set(ctx, PageKeyPrefix+key, value, ttl).Err()
	observability.EndSpan(span, err)
	return err
}

// Clear deletes every page key. SCAN keeps Redis responsive on large keyspaces.
func (s *RedisPageStore) Clear(ctx context.Context) error {
	ctx, span := observability.StartCache(ctx, s.Backend(), "clear")
	err := deleteByPrefix(ctx, s.rdb, PageKeyPrefix)
	observability.EndSpan(span, err)
	return err
}

// deleteByPrefix removes every key under prefix with SCAN+DEL.
func deleteByPrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// BadgerPageStore keeps pages in an embedded Badger database.
type BadgerPageStore struct {
	db *badger.DB
}

// OpenBadgerPageStore opens (or creates) a Badger database at dir. An empty
// dir opens an in-memory database.
func OpenBadgerPageStore(dir string) (*BadgerPageStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger page store: %w", err)
	}
	return &BadgerPageStore{db: db}, nil
}

func (s *BadgerPageStore) Backend() string { return config.CacheBackendBadger }

func (s *BadgerPageStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(PageKeyPrefix + key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *BadgerPageStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(PageKeyPrefix+key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *BadgerPageStore) Clear(_ context.Context) error {
	return s.db.DropPrefix([]byte(PageKeyPrefix))
}

// Close releases the Badger database.
func (s *BadgerPageStore) Close() error {
	return s.db.Close()
}

// NoopPageStore never stores anything.
type NoopPageStore struct{}

func (NoopPageStore) Backend() string { return config.CacheBackendNone }

func (NoopPageStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopPageStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopPageStore) Clear(context.Context) error { return nil }

// NewPageStore picks the backend named by cfg.CacheBackend. When the backend
// cannot be used the no-op store is returned so that pages are simply not cached.
// The returned close function must be called on shutdown.
func NewPageStore(cfg *config.Config, rdb *redis.Client) (PageStore, func() error) {
	noClose := func() error { return nil }

	switch cfg.CacheBackend {
	case config.CacheBackendNone:
		return NoopPageStore{}, noClose
	case config.CacheBackendBadger:
		store, err := OpenBadgerPageStore(cfg.BadgerDir)
		if err != nil {
			middleware.Logger.Warn("Badger page cache unavailable, pages will not be cached",
				slog.String("dir", cfg.BadgerDir), slog.String("error", err.Error()))
			return NoopPageStore{}, noClose
		}
		return store, store.Close
	default:
		if rdb == nil {
			middleware.Logger.Warn("Redis page cache unavailable, pages will not be cached")
			return NoopPageStore{}, noClose
		}
		return NewRedisPageStore(rdb), noClose
	}
}

// Lookup wraps store.Get, counting hits and misses. Store errors count as misses.
func Lookup(ctx context.Context, store PageStore, key string) ([]byte, bool) {
	body, ok, err := store.Get(ctx, key)
	switch {
	case err != nil:
		observability.PageCacheLookups.WithLabelValues(store.Backend(), "error").Inc()
		middleware.Logger.WarnContext(ctx, "page cache read failed", slog.String("error", err.Error()))
		return nil, false
	case ok:
		observability.PageCacheLookups.WithLabelValues(store.Backend(), "hit").Inc()
		return body, true
	default:
		observability.PageCacheLookups.WithLabelValues(store.Backend(), "miss").Inc()
		return nil, false
	}
}
