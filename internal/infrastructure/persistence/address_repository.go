package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAddressRepository implements trade.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByCustomerAndHash finds an address by its dedup key
func (r *GormAddressRepository) FindByCustomerAndHash(ctx context.Context, customerID uuid.UUID, hash string) (*trade.Address, error) {
	var model models.AddressModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND hash = ?", customerID, hash).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates an address; a duplicate (customer, hash) surfaces ErrAlreadyExists
func (r *GormAddressRepository) Save(ctx context.Context, address *trade.Address) error {
	var model models.AddressModel
	model.FromDomain(address)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing address (type promotion)
func (r *GormAddressRepository) Update(ctx context.Context, address *trade.Address) error {
	var model models.AddressModel
	model.FromDomain(address)
	result := r.db.WithContext(ctx).Model(&models.AddressModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"type":       model.Type,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AttachToOrder links an address to an order; re-attaching is a no-op
func (r *GormAddressRepository) AttachToOrder(ctx context.Context, orderID, addressID uuid.UUID) error {
	join := models.OrderAddressModel{
		OrderID:   orderID,
		AddressID: addressID,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&join).Error
}

// ListByOrder returns every address attached to an order
func (r *GormAddressRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.Address, error) {
	var rows []models.AddressModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN order_addresses ON order_addresses.address_id = addresses.id").
		Where("order_addresses.order_id = ?", orderID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	addresses := make([]trade.Address, len(rows))
	for i := range rows {
		addresses[i] = *rows[i].ToDomain()
	}
	return addresses, nil
}

// Ensure GormAddressRepository implements AddressRepository
var _ trade.AddressRepository = (*GormAddressRepository)(nil)
