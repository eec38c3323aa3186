package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReferenceSyncService creates or updates the reference entities import
// rows point at, keyed by their natural keys. Concurrent creation races
// are resolved by the unique constraint plus a read-back, never by
// application-level locking.
type ReferenceSyncService struct {
	repos  Repos
	logger *zap.Logger
}

// NewReferenceSyncService creates a reference sync service over a repo set
func NewReferenceSyncService(repos Repos, logger *zap.Logger) *ReferenceSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceSyncService{repos: repos, logger: logger}
}

// SyncBrand finds or creates a brand by name
func (s *ReferenceSyncService) SyncBrand(ctx context.Context, name string) (*catalog.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "brand name cannot be empty")
	}

	brand, err := s.repos.Brands.FindByName(ctx, name)
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	brand, err = catalog.NewBrand(name)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Brands.Save(ctx, brand); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost a concurrent create; the winner's row is the brand.
			return s.repos.Brands.FindByName(ctx, name)
		}
		return nil, err
	}
	s.logger.Info("created brand from import", zap.String("name", name))
	return brand, nil
}

// SyncProduct finds or creates a product by its external numeric ID.
// An absent category or gender name falls back to the system placeholder,
// itself created find-or-create so the fallback is idempotent.
func (s *ReferenceSyncService) SyncProduct(ctx context.Context, externalID int64, name, brandName, categoryName, genderName string) (*catalog.Product, error) {
	product, err := s.repos.Products.FindByExternalID(ctx, externalID)
	if err == nil {
		// Update only fields that differ and are non-empty in the
		// incoming row; an omitted field never nulls out a stored one.
		name = strings.TrimSpace(name)
		if name != "" && name != product.Name {
			product.Name = name
			product.Touch()
			if err := s.repos.Products.Update(ctx, product); err != nil {
				return nil, err
			}
		}
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	brand, err := s.SyncBrand(ctx, brandName)
	if err != nil {
		return nil, err
	}
	category, err := s.syncCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	gender, err := s.syncGender(ctx, genderName)
	if err != nil {
		return nil, err
	}

	product, err = catalog.NewProduct(brand.ID, externalID, name, category.ID, gender.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Products.Save(ctx, product); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.repos.Products.FindByExternalID(ctx, externalID)
		}
		return nil, err
	}
	s.logger.Info("created product from import",
		zap.Int64("external_id", externalID),
		zap.String("brand", brand.Name))
	return product, nil
}

// SyncExpenseType finds or creates an expense type by its external ID
func (s *ReferenceSyncService) SyncExpenseType(ctx context.Context, externalID int64, name string) (*finance.ExpenseType, error) {
	expenseType, err := s.repos.ExpenseTypes.FindByExternalID(ctx, externalID)
	if err == nil {
		name = strings.TrimSpace(name)
		if name != "" && name != expenseType.Name {
			expenseType.Name = name
			expenseType.Touch()
			if err := s.repos.ExpenseTypes.Update(ctx, expenseType); err != nil {
				return nil, err
			}
		}
		return expenseType, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	expenseType, err = finance.NewExpenseType(externalID, name)
	if err != nil {
		return nil, err
	}
	if err := s.repos.ExpenseTypes.Save(ctx, expenseType); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.repos.ExpenseTypes.FindByExternalID(ctx, externalID)
		}
		return nil, err
	}
	s.logger.Info("created expense type from import", zap.Int64("external_id", externalID))
	return expenseType, nil
}

func (s *ReferenceSyncService) syncCategory(ctx context.Context, name string) (*catalog.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = catalog.DefaultCategoryName
	}
	category, err := s.repos.Categories.FindByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	category = &catalog.Category{BaseEntity: shared.NewBaseEntity(), Name: name}
	if err := s.repos.Categories.Save(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.repos.Categories.FindByName(ctx, name)
		}
		return nil, err
	}
	return category, nil
}

func (s *ReferenceSyncService) syncGender(ctx context.Context, name string) (*catalog.Gender, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = catalog.DefaultGenderName
	}
	gender, err := s.repos.Genders.FindByName(ctx, name)
	if err == nil {
		return gender, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	gender = &catalog.Gender{BaseEntity: shared.NewBaseEntity(), Name: name}
	if err := s.repos.Genders.Save(ctx, gender); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.repos.Genders.FindByName(ctx, name)
		}
		return nil, err
	}
	return gender, nil
}
