package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductItemRepository implements catalog.ProductItemRepository using GORM
type GormProductItemRepository struct {
	db *gorm.DB
}

// NewGormProductItemRepository creates a new GormProductItemRepository
func NewGormProductItemRepository(db *gorm.DB) *GormProductItemRepository {
	return &GormProductItemRepository{db: db}
}

// FindByID finds a product item by its ID
func (r *GormProductItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductItem, error) {
	var model models.ProductItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalItemID finds a product item by its external natural key
func (r *GormProductItemRepository) FindByExternalItemID(ctx context.Context, externalItemID int64) (*catalog.ProductItem, error) {
	var model models.ProductItemModel
	if err := r.db.WithContext(ctx).
		Where("external_item_id = ?", externalItemID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates a product item; a duplicate external item ID surfaces ErrAlreadyExists
func (r *GormProductItemRepository) Save(ctx context.Context, item *catalog.ProductItem) error {
	var model models.ProductItemModel
	model.FromDomain(item)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Ensure GormProductItemRepository implements ProductItemRepository
var _ catalog.ProductItemRepository = (*GormProductItemRepository)(nil)
