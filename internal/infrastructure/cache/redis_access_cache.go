package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisAccessCache stores resolved ID sets in Redis so multiple server
// instances share one view of access state. Keys carry the TTL; user and
// global invalidation scan by prefix.
type RedisAccessCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisCacheConfig holds Redis connection configuration for the cache
type RedisCacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisAccessCache connects to Redis and returns a cache, failing when
// the initial ping does not succeed.
func NewRedisAccessCache(cfg RedisCacheConfig, logger *zap.Logger) (*RedisAccessCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultAccessTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisAccessCache{
		client:    client,
		keyPrefix: "access:resolve:",
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// NewRedisAccessCacheWithClient wraps an existing client, for tests or a
// shared connection pool.
func NewRedisAccessCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisAccessCache {
	if ttl == 0 {
		ttl = DefaultAccessTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisAccessCache{client: client, keyPrefix: "access:resolve:", ttl: ttl, logger: logger}
}

func (c *RedisAccessCache) key(userID uuid.UUID, kind access.EntityKind) string {
	return c.keyPrefix + userID.String() + ":" + kind.String()
}

// Get returns the cached ID set; a miss or any Redis failure reads as a
// miss so the resolver recomputes rather than erroring a request.
func (c *RedisAccessCache) Get(ctx context.Context, userID uuid.UUID, kind access.EntityKind) ([]uuid.UUID, bool) {
	payload, err := c.client.Get(ctx, c.key(userID, kind)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("access cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(payload, &ids); err != nil {
		c.logger.Warn("access cache entry corrupt, dropping", zap.Error(err))
		c.client.Del(ctx, c.key(userID, kind))
		return nil, false
	}
	return ids, true
}

// Set stores an ID set with the configured TTL
func (c *RedisAccessCache) Set(ctx context.Context, userID uuid.UUID, kind access.EntityKind, ids []uuid.UUID) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(userID, kind), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("access cache write failed", zap.Error(err))
	}
}

// Invalidate drops one (user, kind) entry
func (c *RedisAccessCache) Invalidate(ctx context.Context, userID uuid.UUID, kind access.EntityKind) {
	if err := c.client.Del(ctx, c.key(userID, kind)).Err(); err != nil {
		c.logger.Warn("access cache invalidation failed", zap.Error(err))
	}
}

// InvalidateUser drops all entries for a user via a prefix scan
func (c *RedisAccessCache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	c.deleteByPattern(ctx, c.keyPrefix+userID.String()+":*")
}

// InvalidateAll flushes every access cache entry
func (c *RedisAccessCache) InvalidateAll(ctx context.Context) {
	c.deleteByPattern(ctx, c.keyPrefix+"*")
}

func (c *RedisAccessCache) deleteByPattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("access cache invalidation failed",
				zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("access cache scan failed", zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisAccessCache) Close() error {
	return c.client.Close()
}

var _ access.Cache = (*RedisAccessCache)(nil)
