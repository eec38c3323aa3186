package persistence

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// kindTable maps one entity kind to its persistence model and the column
// set the resolver may filter on. The allowed-columns set keeps foreign
// key names from the relation graph from reaching SQL unchecked.
type kindTable struct {
	model          interface{}
	allowedColumns map[string]bool
}

// kindTables is the explicit kind-to-table registry. Every kind in
// access.AllKinds must appear here; NewGormEntityIDSource fails fast on a
// missing entry rather than discovering it on first query.
var kindTables = map[access.EntityKind]kindTable{
	access.KindBrand:       {model: &models.BrandModel{}, allowedColumns: map[string]bool{}},
	access.KindProduct:     {model: &models.ProductModel{}, allowedColumns: map[string]bool{"brand_id": true}},
	access.KindProductItem: {model: &models.ProductItemModel{}, allowedColumns: map[string]bool{"product_id": true}},
	access.KindOrder:       {model: &models.OrderModel{}, allowedColumns: map[string]bool{"product_id": true}},
	access.KindOrderItem:   {model: &models.OrderItemModel{}, allowedColumns: map[string]bool{"product_item_id": true}},
	access.KindExpense:     {model: &models.ExpenseModel{}, allowedColumns: map[string]bool{"product_id": true}},
	access.KindCustomer:    {model: &models.CustomerModel{}, allowedColumns: map[string]bool{}},
	access.KindAddress:     {model: &models.AddressModel{}, allowedColumns: map[string]bool{"customer_id": true}},
}

// GormEntityIDSource implements access.EntityIDSource over the local
// database using the explicit kind-to-table registry.
type GormEntityIDSource struct {
	db *gorm.DB
}

// NewGormEntityIDSource creates an ID source after validating that every
// declared entity kind has a table registration.
func NewGormEntityIDSource(db *gorm.DB) (*GormEntityIDSource, error) {
	for _, kind := range access.AllKinds {
		if _, ok := kindTables[kind]; !ok {
			return nil, shared.NewDomainError("CONFIGURATION_ERROR",
				fmt.Sprintf("entity kind %q has no table registration", kind))
		}
	}
	return &GormEntityIDSource{db: db}, nil
}

func (s *GormEntityIDSource) table(kind access.EntityKind) (kindTable, error) {
	t, ok := kindTables[kind]
	if !ok {
		return kindTable{}, shared.NewDomainError("CONFIGURATION_ERROR",
			fmt.Sprintf("entity kind %q has no table registration", kind))
	}
	return t, nil
}

// AllIDs returns every ID of the given kind
func (s *GormEntityIDSource) AllIDs(ctx context.Context, kind access.EntityKind) ([]uuid.UUID, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(t.model).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// IDsByParent returns IDs of kind whose foreignKey column is in parentIDs
func (s *GormEntityIDSource) IDsByParent(ctx context.Context, kind access.EntityKind, foreignKey string, parentIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	if !t.allowedColumns[foreignKey] {
		return nil, shared.NewDomainError("CONFIGURATION_ERROR",
			fmt.Sprintf("column %q is not filterable on kind %q", foreignKey, kind))
	}
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(t.model).
		Where(foreignKey+" IN ?", parentIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ParentRef returns the foreignKey value of one row. The bool is false
// when the row does not exist or the reference is null.
func (s *GormEntityIDSource) ParentRef(ctx context.Context, kind access.EntityKind, foreignKey string, id uuid.UUID) (uuid.UUID, bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return uuid.Nil, false, err
	}
	if !t.allowedColumns[foreignKey] {
		return uuid.Nil, false, shared.NewDomainError("CONFIGURATION_ERROR",
			fmt.Sprintf("column %q is not filterable on kind %q", foreignKey, kind))
	}
	var refs []*uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(t.model).
		Where("id = ?", id).
		Limit(1).
		Pluck(foreignKey, &refs).Error; err != nil {
		return uuid.Nil, false, err
	}
	if len(refs) == 0 || refs[0] == nil || *refs[0] == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return *refs[0], true, nil
}

// Exists reports whether a row of the kind exists
func (s *GormEntityIDSource) Exists(ctx context.Context, kind access.EntityKind, id uuid.UUID) (bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := s.db.WithContext(ctx).
		Model(t.model).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormEntityIDSource implements EntityIDSource
var _ access.EntityIDSource = (*GormEntityIDSource)(nil)
