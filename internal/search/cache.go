package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/randalmurphal/cognigen/internal/resources"
)

// DefaultCacheTTL is how long cached lookups stay fresh.
const DefaultCacheTTL = 6 * time.Hour

// Cache stores lookup results by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]resources.Item, bool, error)
	Set(ctx context.Context, key string, items []resources.Item, ttl time.Duration) error
}

// MemoryCache is an in-process Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	items   []resources.Item
	expires time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]resources.Item, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return cloneItems(e.items), true, nil
}

// Set implements Cache. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, items []resources.Item, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}
	c.entries[key] = memoryEntry{items: cloneItems(items), expires: expires}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache stores lookups in Redis as JSON.
type RedisCache struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisCache wraps an existing client. Keys are namespaced by prefix.
func NewRedisCache(rdb goredis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "cognigen:search:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]resources.Item, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var items []resources.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached items: %w", err)
	}
	return items, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, items []resources.Item, ttl time.Duration) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// cachedSearcher serves repeated lookups from a Cache.
type cachedSearcher struct {
	name   string
	next   resources.Searcher
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// Cached wraps next with cache. Cache failures are logged and fall through
// to next. Errors and empty results from next are not cached.
func Cached(name string, next resources.Searcher, cache Cache, ttl time.Duration, logger *slog.Logger) resources.Searcher {
	if cache == nil {
		return next
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedSearcher{name: name, next: next, cache: cache, ttl: ttl, logger: logger}
}

func (s *cachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]resources.Item, error) {
	key := CacheKey(s.name, query, maxResults)

	items, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("search cache read failed", slog.String("source", s.name), slog.String("error", err.Error()))
	} else if ok {
		return items, nil
	}

	items, err = s.next.Search(ctx, query, maxResults)
	if err != nil || len(items) == 0 {
		return items, err
	}
	if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
		s.logger.Warn("search cache write failed", slog.String("source", s.name), slog.String("error", err.Error()))
	}
	return items, nil
}

// CacheKey builds the cache key for a lookup. Queries differing only in
// case or surrounding whitespace share a key.
func CacheKey(source, query string, maxResults int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%s:%d:%s", source, maxResults, q)
}

func cloneItems(items []resources.Item) []resources.Item {
	if items == nil {
		return nil
	}
	out := make([]resources.Item, len(items))
	copy(out, items)
	return out
}
