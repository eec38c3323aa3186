// Package catalog contains the brand/product reference entities the
// access chain and the import pipeline hang off.
package catalog

import (
	"context"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Brand is the root of the access-inheritance chain
type Brand struct {
	shared.BaseEntity
	Name string
}

// NewBrand creates a brand with a trimmed, non-empty name
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "brand name cannot be empty")
	}
	return &Brand{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// Rename updates the brand name, rejecting empty values
func (b *Brand) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "brand name cannot be empty")
	}
	b.Name = name
	b.Touch()
	return nil
}

// BrandRepository persists brands. Name is the natural key.
type BrandRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)
	FindByName(ctx context.Context, name string) (*Brand, error)
	// ListByIDs returns the brands whose IDs are in the set; used for
	// access-scoped listings. An empty set returns no rows.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Brand, error)
	Save(ctx context.Context, brand *Brand) error
	Update(ctx context.Context, brand *Brand) error
}
