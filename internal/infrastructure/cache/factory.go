package cache

import (
	"context"
	"fmt"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DatasetCacheFactory creates the dataset cache selected by configuration
type DatasetCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// FactoryOption configures the factory
type FactoryOption func(*DatasetCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *DatasetCacheFactory) {
		f.logger = logger
	}
}

// NewDatasetCacheFactory creates a new factory
func NewDatasetCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *DatasetCacheFactory {
	f := &DatasetCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache connects to Redis
func (f *DatasetCacheFactory) CreateRedisCache(ctx context.Context) (*RedisDatasetCache, error) {
	c, err := NewRedisDatasetCache(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.cacheConfig.KeyPrefix, f.cacheConfig.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis dataset cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory cache. Instances do not share it.
func (f *DatasetCacheFactory) CreateInMemoryCache() *InMemoryDatasetCache {
	return NewInMemoryDatasetCache(f.cacheConfig.TTL)
}

// CreateCache returns the configured backend. When Redis is selected but
// unreachable, it falls back to memory if AllowFallback is set.
func (f *DatasetCacheFactory) CreateCache(ctx context.Context) (dashboard.DatasetCache, error) {
	switch f.cacheConfig.Backend {
	case config.CacheNone:
		f.logger.Info("dataset cache disabled")
		return NoopDatasetCache{}, nil
	case "", config.CacheMemory:
		f.logger.Info("using in-memory dataset cache")
		return f.CreateInMemoryCache(), nil
	case config.CacheRedis:
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}

	c, err := f.CreateRedisCache(ctx)
	if err == nil {
		f.logger.Info("using Redis dataset cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.cacheConfig.AllowFallback {
		return nil, fmt.Errorf("Redis required for the dataset cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dataset cache. "+
		"Instances will build their own snapshots.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
