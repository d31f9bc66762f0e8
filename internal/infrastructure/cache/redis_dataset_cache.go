package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/redis/go-redis/v9"
)

// payloadVersion is bumped whenever the cached table set layout changes.
// Entries with another version are treated as misses.
const payloadVersion = 1

// DefaultKeyPrefix namespaces dataset keys
const DefaultKeyPrefix = "olist:dataset:"

// payload is the JSON document stored per key
type payload struct {
	Version  int               `json:"version"`
	StoredAt time.Time         `json:"stored_at"`
	Tables   *dataset.TableSet `json:"tables"`
}

func encodePayload(ts *dataset.TableSet, now time.Time) ([]byte, error) {
	return json.Marshal(payload{Version: payloadVersion, StoredAt: now.UTC(), Tables: ts})
}

// decodePayload returns nil without error for a payload of another version
func decodePayload(data []byte) (*dataset.TableSet, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Version != payloadVersion || p.Tables == nil {
		return nil, nil
	}
	return p.Tables, nil
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisDatasetCache shares enriched table sets between instances through Redis
type RedisDatasetCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDatasetCache connects and pings Redis
func NewRedisDatasetCache(ctx context.Context, cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisDatasetCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisDatasetCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisDatasetCacheWithClient wraps an existing client
func NewRedisDatasetCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisDatasetCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisDatasetCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Get loads and decodes the table set stored under key
func (c *RedisDatasetCache) Get(ctx context.Context, key string) (*dataset.TableSet, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached dataset: %w", err)
	}

	ts, err := decodePayload(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode cached dataset: %w", err)
	}
	if ts == nil {
		return nil, false, nil
	}
	return ts, true, nil
}

// Set encodes ts and stores it with the cache TTL
func (c *RedisDatasetCache) Set(ctx context.Context, key string, ts *dataset.TableSet) error {
	data, err := encodePayload(ts, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache dataset: %w", err)
	}
	return nil
}

// Delete removes key
func (c *RedisDatasetCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached dataset: %w", err)
	}
	return nil
}

// Backend names the implementation
func (c *RedisDatasetCache) Backend() string {
	return "redis"
}

// Close closes the Redis client
func (c *RedisDatasetCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client
func (c *RedisDatasetCache) GetClient() *redis.Client {
	return c.client
}

var _ dashboard.DatasetCache = (*RedisDatasetCache)(nil)
