package accessapp

import (
	"context"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CachedResolver memoizes Resolve results per (user, kind) and owns the
// invalidation cascade: dropping a kind's entry also drops every kind
// that inherits from it, because a stale child set would leak or hide
// rows after a parent-level grant change. TTL expiry alone is not relied
// on for correctness.
type CachedResolver struct {
	inner    access.Resolver
	cache    access.Cache
	graph    *access.RelationGraph
	disabled map[access.EntityKind]bool
	logger   *zap.Logger
}

// NewCachedResolver wraps a resolver with a cache. disabledKinds lists
// entity kinds that bypass the cache entirely.
func NewCachedResolver(inner access.Resolver, cache access.Cache, graph *access.RelationGraph, disabledKinds []access.EntityKind, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	disabled := make(map[access.EntityKind]bool, len(disabledKinds))
	for _, k := range disabledKinds {
		disabled[k] = true
	}
	return &CachedResolver{
		inner:    inner,
		cache:    cache,
		graph:    graph,
		disabled: disabled,
		logger:   logger,
	}
}

// Resolve returns the cached ID set when present, otherwise computes and
// stores it. Global admins are never cached; their set is unbounded and
// cheap to enumerate.
func (r *CachedResolver) Resolve(ctx context.Context, principal access.Principal, kind access.EntityKind) ([]uuid.UUID, error) {
	if principal.IsGlobalAdmin || r.disabled[kind] {
		return r.inner.Resolve(ctx, principal, kind)
	}
	if ids, ok := r.cache.Get(ctx, principal.UserID, kind); ok {
		return ids, nil
	}
	ids, err := r.inner.Resolve(ctx, principal, kind)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, principal.UserID, kind, ids)
	return ids, nil
}

// IsAccessible answers from the cached set when one exists, otherwise
// delegates to the walking check without materializing the set.
func (r *CachedResolver) IsAccessible(ctx context.Context, principal access.Principal, kind access.EntityKind, id uuid.UUID) (bool, error) {
	if principal.IsGlobalAdmin {
		return true, nil
	}
	if !r.disabled[kind] {
		if ids, ok := r.cache.Get(ctx, principal.UserID, kind); ok {
			for _, cached := range ids {
				if cached == id {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return r.inner.IsAccessible(ctx, principal, kind, id)
}

// Invalidate drops the (user, kind) entry and cascades to every
// descendant kind in the relation graph.
func (r *CachedResolver) Invalidate(ctx context.Context, userID uuid.UUID, kind access.EntityKind) {
	r.cache.Invalidate(ctx, userID, kind)
	for _, child := range r.graph.Descendants(kind) {
		r.cache.Invalidate(ctx, userID, child)
	}
	r.logger.Debug("access cache invalidated",
		zap.String("user_id", userID.String()),
		zap.String("kind", kind.String()),
	)
}

// InvalidateUser drops every cached kind for a user
func (r *CachedResolver) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	r.cache.InvalidateUser(ctx, userID)
}

// InvalidateAll flushes the whole cache. Used rarely, after bulk
// permission changes.
func (r *CachedResolver) InvalidateAll(ctx context.Context) {
	r.cache.InvalidateAll(ctx)
}
