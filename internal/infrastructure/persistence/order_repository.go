package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds an order by its external natural key
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, externalID int64) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByIDs returns the orders whose IDs are in the set
func (r *GormOrderRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("order_date DESC, external_id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Save creates an order; a duplicate external ID surfaces ErrAlreadyExists
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing order
func (r *GormOrderRepository) Update(ctx context.Context, order *trade.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"product_id":               model.ProductID,
			"customer_id":              model.CustomerID,
			"order_date":               model.OrderDate,
			"agent":                    model.Agent,
			"grand_total":              model.GrandTotal,
			"refund_amount":            model.RefundAmount,
			"is_marketplace":           model.IsMarketplace,
			"has_missing_contact_info": model.HasMissingContactInfo,
			"is_refunded":              model.IsRefunded,
			"is_partial_refund":        model.IsPartialRefund,
			"refund_amount_is_valid":   model.RefundAmountIsValid,
			"updated_at":               model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderItemRepository implements trade.OrderItemRepository using GORM
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewGormOrderItemRepository creates a new GormOrderItemRepository
func NewGormOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// FindByExternalID finds an order item by its external natural key
func (r *GormOrderItemRepository) FindByExternalID(ctx context.Context, externalID int64) (*trade.OrderItem, error) {
	var model models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates an order item; a duplicate external ID surfaces ErrAlreadyExists
func (r *GormOrderItemRepository) Save(ctx context.Context, item *trade.OrderItem) error {
	var model models.OrderItemModel
	model.FromDomain(item)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing order item
func (r *GormOrderItemRepository) Update(ctx context.Context, item *trade.OrderItem) error {
	var model models.OrderItemModel
	model.FromDomain(item)
	result := r.db.WithContext(ctx).Model(&models.OrderItemModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"order_id":        model.OrderID,
			"product_item_id": model.ProductItemID,
			"item_id":         model.ItemID,
			"price":           model.Price,
			"qty":             model.Qty,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOrderItemRepository implements OrderItemRepository
var _ trade.OrderItemRepository = (*GormOrderItemRepository)(nil)
