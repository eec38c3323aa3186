package cache

import (
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AccessCacheFactory builds the access cache selected by configuration
type AccessCacheFactory struct {
	cacheConfig           config.AccessCacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AccessCacheFactoryOption is a functional option for the factory
type AccessCacheFactoryOption func(*AccessCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AccessCacheFactoryOption {
	return func(f *AccessCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether a Redis connection failure falls
// back to the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) AccessCacheFactoryOption {
	return func(f *AccessCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAccessCacheFactory creates a factory from configuration
func NewAccessCacheFactory(cacheCfg config.AccessCacheConfig, redisCfg config.RedisConfig, opts ...AccessCacheFactoryOption) *AccessCacheFactory {
	f := &AccessCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache backend. A single-instance
// deployment runs on the in-memory cache; multi-instance deployments
// should use Redis so invalidation reaches every instance.
func (f *AccessCacheFactory) Create() (access.Cache, error) {
	if f.cacheConfig.Backend != "redis" {
		return NewInMemoryAccessCache(
			WithTTL(f.cacheConfig.TTL),
			WithAccessCacheLogger(f.logger),
		), nil
	}

	redisCache, err := NewRedisAccessCache(RedisCacheConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
		TTL:      f.cacheConfig.TTL,
	}, f.logger)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, err
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory access cache", zap.Error(err))
		return NewInMemoryAccessCache(
			WithTTL(f.cacheConfig.TTL),
			WithAccessCacheLogger(f.logger),
		), nil
	}
	return redisCache, nil
}

// DisabledKinds converts configured kind names into entity kinds,
// ignoring unknown names.
func (f *AccessCacheFactory) DisabledKinds() []access.EntityKind {
	kinds := make([]access.EntityKind, 0, len(f.cacheConfig.DisabledKinds))
	for _, name := range f.cacheConfig.DisabledKinds {
		k := access.EntityKind(name)
		if k.IsValid() {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
