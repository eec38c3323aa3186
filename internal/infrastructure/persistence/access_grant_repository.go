package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGrantRepository implements access.GrantRepository using GORM
type GormGrantRepository struct {
	db *gorm.DB
}

// NewGormGrantRepository creates a new GormGrantRepository
func NewGormGrantRepository(db *gorm.DB) *GormGrantRepository {
	return &GormGrantRepository{db: db}
}

// Save creates a grant; a live duplicate surfaces ErrAlreadyExists
func (r *GormGrantRepository) Save(ctx context.Context, grant *access.Grant) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccessGrantModel{}).
		Where("user_id = ? AND entity_kind = ? AND entity_id = ? AND deleted_at IS NULL",
			grant.UserID, grant.Kind.String(), grant.EntityID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrAlreadyExists
	}

	var model models.AccessGrantModel
	model.FromDomain(grant)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Revoke soft-deletes the live grant for (user, kind, entity).
// Revoking an absent grant is a no-op.
func (r *GormGrantRepository) Revoke(ctx context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND entity_kind = ? AND entity_id = ?", userID, kind.String(), entityID).
		Delete(&models.AccessGrantModel{}).Error
}

// LiveEntityIDs returns the entity IDs of all live grants for a user and kind
func (r *GormGrantRepository) LiveEntityIDs(ctx context.Context, userID uuid.UUID, kind access.EntityKind) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.AccessGrantModel{}).
		Where("user_id = ? AND entity_kind = ?", userID, kind.String()).
		Pluck("entity_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// HasLiveGrant reports whether a live grant exists for (user, kind, entity)
func (r *GormGrantRepository) HasLiveGrant(ctx context.Context, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccessGrantModel{}).
		Where("user_id = ? AND entity_kind = ? AND entity_id = ?", userID, kind.String(), entityID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountLiveForKinds counts a user's live grants across the given kinds
func (r *GormGrantRepository) CountLiveForKinds(ctx context.Context, userID uuid.UUID, kinds []access.EntityKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccessGrantModel{}).
		Where("user_id = ? AND entity_kind IN ?", userID, names).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormGrantRepository implements GrantRepository
var _ access.GrantRepository = (*GormGrantRepository)(nil)
