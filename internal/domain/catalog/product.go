package catalog

import (
	"context"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultCategoryName is the placeholder category assigned to imported
// products whose source row carries none.
const DefaultCategoryName = "Default"

// DefaultGenderName is the placeholder gender assigned to imported
// products whose source row carries none.
const DefaultGenderName = "Unisex"

// Product belongs to a brand and is keyed externally by ProductID
type Product struct {
	shared.BaseEntity
	BrandID    uuid.UUID
	ExternalID int64
	Name       string
	CategoryID uuid.UUID
	GenderID   uuid.UUID
}

// NewProduct creates a product under a brand
func NewProduct(brandID uuid.UUID, externalID int64, name string, categoryID, genderID uuid.UUID) (*Product, error) {
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "product requires a brand")
	}
	if externalID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "product requires a positive external id")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		BrandID:    brandID,
		ExternalID: externalID,
		Name:       strings.TrimSpace(name),
		CategoryID: categoryID,
		GenderID:   genderID,
	}, nil
}

// ProductItem is a sellable variant of a product, keyed externally by ItemID
type ProductItem struct {
	shared.BaseEntity
	ProductID      uuid.UUID
	ExternalItemID int64
	Name           string
}

// Category is shared reference data, not access-scoped per row
type Category struct {
	shared.BaseEntity
	Name string
}

// Gender is shared reference data, not access-scoped per row
type Gender struct {
	shared.BaseEntity
	Name string
}

// ProductRepository persists products. ExternalID is the natural key.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByExternalID(ctx context.Context, externalID int64) (*Product, error)
	// ListByIDs returns the products whose IDs are in the set; an empty
	// set returns no rows.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
}

// ProductItemRepository persists product items. ExternalItemID is the natural key.
type ProductItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductItem, error)
	FindByExternalItemID(ctx context.Context, externalItemID int64) (*ProductItem, error)
	Save(ctx context.Context, item *ProductItem) error
}

// CategoryRepository persists categories, found-or-created by name
type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*Category, error)
	Save(ctx context.Context, category *Category) error
}

// GenderRepository persists genders, found-or-created by name
type GenderRepository interface {
	FindByName(ctx context.Context, name string) (*Gender, error)
	Save(ctx context.Context, gender *Gender) error
}
