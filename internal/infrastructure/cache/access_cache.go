// Package cache provides the access-resolution cache implementations:
// an in-memory TTL cache and a Redis-backed cache for distributed
// deployments, plus a factory choosing between them from configuration.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultAccessTTL bounds staleness when invalidation is missed;
	// correctness after grant mutations relies on explicit invalidation,
	// not on this TTL.
	DefaultAccessTTL = 10 * time.Minute

	cleanupInterval = 30 * time.Second
)

// InMemoryAccessCache memoizes resolved ID sets per (user, kind) with a
// bounded TTL. Safe for concurrent readers and a single invalidator.
type InMemoryAccessCache struct {
	entries sync.Map // map[string]*accessEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type accessEntry struct {
	userID    uuid.UUID
	kind      access.EntityKind
	ids       []uuid.UUID
	expiresAt time.Time
}

func (e *accessEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryAccessCacheOption is a functional option for the cache
type InMemoryAccessCacheOption func(*InMemoryAccessCache)

// WithTTL overrides the default entry TTL
func WithTTL(ttl time.Duration) InMemoryAccessCacheOption {
	return func(c *InMemoryAccessCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithAccessCacheLogger sets the logger
func WithAccessCacheLogger(logger *zap.Logger) InMemoryAccessCacheOption {
	return func(c *InMemoryAccessCache) {
		c.logger = logger
	}
}

// NewInMemoryAccessCache creates an in-memory access cache and starts its
// expiry janitor.
func NewInMemoryAccessCache(opts ...InMemoryAccessCacheOption) *InMemoryAccessCache {
	c := &InMemoryAccessCache{
		ttl:    DefaultAccessTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanupExpired()
	return c
}

func cacheKey(userID uuid.UUID, kind access.EntityKind) string {
	return userID.String() + ":" + kind.String()
}

// Get returns the cached ID set for (user, kind) when present and fresh
func (c *InMemoryAccessCache) Get(_ context.Context, userID uuid.UUID, kind access.EntityKind) ([]uuid.UUID, bool) {
	if value, ok := c.entries.Load(cacheKey(userID, kind)); ok {
		entry := value.(*accessEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.ids, true
		}
		c.entries.Delete(cacheKey(userID, kind))
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// Set stores an ID set for (user, kind). The slice is copied so callers
// cannot mutate cached state.
func (c *InMemoryAccessCache) Set(_ context.Context, userID uuid.UUID, kind access.EntityKind, ids []uuid.UUID) {
	copied := make([]uuid.UUID, len(ids))
	copy(copied, ids)
	c.entries.Store(cacheKey(userID, kind), &accessEntry{
		userID:    userID,
		kind:      kind,
		ids:       copied,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Invalidate drops one (user, kind) entry
func (c *InMemoryAccessCache) Invalidate(_ context.Context, userID uuid.UUID, kind access.EntityKind) {
	c.entries.Delete(cacheKey(userID, kind))
}

// InvalidateUser drops all entries for a user
func (c *InMemoryAccessCache) InvalidateUser(_ context.Context, userID uuid.UUID) {
	c.entries.Range(func(key, value any) bool {
		if value.(*accessEntry).userID == userID {
			c.entries.Delete(key)
		}
		return true
	})
}

// InvalidateAll flushes everything
func (c *InMemoryAccessCache) InvalidateAll(_ context.Context) {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Stats returns hit/miss counters for monitoring
func (c *InMemoryAccessCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop terminates the cleanup goroutine
func (c *InMemoryAccessCache) Stop() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

func (c *InMemoryAccessCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*accessEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

var _ access.Cache = (*InMemoryAccessCache)(nil)
