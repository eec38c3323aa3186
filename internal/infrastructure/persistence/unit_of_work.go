package persistence

import (
	"context"

	"github.com/backoffice/backend/internal/application/importer"
	"gorm.io/gorm"
)

// GormUnitOfWork binds a fresh repository set to one transaction per call
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a transaction with transaction-bound repositories
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos importer.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, importer.Repos{
			Brands:       NewGormBrandRepository(tx),
			Products:     NewGormProductRepository(tx),
			ProductItems: NewGormProductItemRepository(tx),
			Categories:   NewGormCategoryRepository(tx),
			Genders:      NewGormGenderRepository(tx),
			Customers:    NewGormCustomerRepository(tx),
			Addresses:    NewGormAddressRepository(tx),
			Orders:       NewGormOrderRepository(tx),
			OrderItems:   NewGormOrderItemRepository(tx),
			Expenses:     NewGormExpenseRepository(tx),
			ExpenseTypes: NewGormExpenseTypeRepository(tx),
		})
	})
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ importer.UnitOfWork = (*GormUnitOfWork)(nil)
