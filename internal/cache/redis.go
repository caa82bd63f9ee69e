package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/logger"
)

// DefaultKeyPrefix namespaces snapshot keys in Redis.
const DefaultKeyPrefix = "screener:quotes"

// ErrNotFound is returned by a StringStore when a key has no value.
var ErrNotFound = errors.New("key not found")

// StringStore is the narrow key-value port the Redis cache depends on.
// Production uses a go-redis client adapter; tests use an in-memory
// fake.
type StringStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// RedisStore adapts a go-redis client to StringStore.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads a key's value, mapping redis.Nil to ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set writes a key's value without expiry; snapshot freshness is judged
// by the caller's TTL at read time.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// RedisCache stores one JSON snapshot value per region. Backend
// unavailability never surfaces as an error: reads degrade to a miss,
// writes are logged and swallowed.
type RedisCache struct {
	store     StringStore
	keyPrefix string
	log       logger.Interface
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis-backed cache over a string store.
func NewRedisCache(store StringStore, keyPrefix string, log logger.Interface) *RedisCache {
	keyPrefix = strings.TrimRight(keyPrefix, ":")
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &RedisCache{
		store:     store,
		keyPrefix: keyPrefix,
		log:       log.WithComponent("cache"),
	}
}

// Load reads the region's snapshot if it is fresh. Unreachable Redis,
// malformed payloads, version mismatches, and stale entries are all
// misses.
func (c *RedisCache) Load(ctx context.Context, region string, ttl time.Duration) ([]domain.EquityQuote, error) {
	key := c.cacheKey(region)

	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("redis cache lookup failed, treating as miss", "key", key, "error", err)
		}
		return nil, nil
	}
	if payload == "" {
		return nil, nil
	}

	var snapshot Snapshot
	if unmarshalErr := json.Unmarshal([]byte(payload), &snapshot); unmarshalErr != nil {
		c.log.Warn("invalid redis cache payload, treating as miss", "key", key)
		return nil, nil
	}

	if snapshot.Version != SnapshotVersion || !snapshot.fresh(ttl) {
		return nil, nil
	}

	return snapshot.records(), nil
}

// Save writes the region's snapshot and returns the key. Connectivity
// failures are logged and swallowed; the live crawl result is still
// good.
func (c *RedisCache) Save(ctx context.Context, region string, records []domain.EquityQuote) (string, error) {
	key := c.cacheKey(region)

	data, err := json.Marshal(NewSnapshot(region, records))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if setErr := c.store.Set(ctx, key, string(data)); setErr != nil {
		c.log.Warn("redis cache write failed", "key", key, "error", setErr)
	}

	return key, nil
}

func (c *RedisCache) cacheKey(region string) string {
	return c.keyPrefix + ":" + NormalizeRegion(region)
}
