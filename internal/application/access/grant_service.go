package accessapp

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidator is the slice of the cached resolver the grant service
// needs: every grant mutation must drop the affected user's cached sets,
// cascading to inheriting kinds.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID, kind access.EntityKind)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
	InvalidateAll(ctx context.Context)
}

// GrantService administers direct access grants. Cache invalidation is a
// wired side effect of every mutation, not left to TTL expiry.
type GrantService struct {
	grants      access.GrantRepository
	invalidator CacheInvalidator
	logger      *zap.Logger
}

// NewGrantService creates a grant administration service
func NewGrantService(grants access.GrantRepository, invalidator CacheInvalidator, logger *zap.Logger) *GrantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantService{grants: grants, invalidator: invalidator, logger: logger}
}

// Grant creates a live grant. Granting an already-granted record is a
// no-op rather than an error.
func (s *GrantService) Grant(ctx context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID, level access.GrantLevel) error {
	grant, err := access.NewGrant(userID, kind, entityID, level)
	if err != nil {
		return err
	}
	if err := s.grants.Save(ctx, grant); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	s.invalidator.Invalidate(ctx, userID, kind)
	s.logger.Info("access granted",
		zap.String("user_id", userID.String()),
		zap.String("kind", kind.String()),
		zap.String("entity_id", entityID.String()),
	)
	return nil
}

// Revoke soft-deletes the live grant and invalidates the user's cache
func (s *GrantService) Revoke(ctx context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) error {
	if err := s.grants.Revoke(ctx, userID, kind, entityID); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, userID, kind)
	s.logger.Info("access revoked",
		zap.String("user_id", userID.String()),
		zap.String("kind", kind.String()),
		zap.String("entity_id", entityID.String()),
	)
	return nil
}

// InvalidateUserCache drops every cached kind for a user after a bulk
// permission change.
func (s *GrantService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) {
	s.invalidator.InvalidateUser(ctx, userID)
}
