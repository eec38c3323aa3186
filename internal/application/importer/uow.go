// Package importer contains the import pipeline's application services:
// reference sync, per-entity upserts and the run orchestrator.
package importer

import (
	"context"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/backoffice/backend/internal/domain/trade"
)

// Repos bundles the repositories one import row touches. The orchestrator
// receives a fresh, transaction-bound set per row.
type Repos struct {
	Brands       catalog.BrandRepository
	Products     catalog.ProductRepository
	ProductItems catalog.ProductItemRepository
	Categories   catalog.CategoryRepository
	Genders      catalog.GenderRepository
	Customers    trade.CustomerRepository
	Addresses    trade.AddressRepository
	Orders       trade.OrderRepository
	OrderItems   trade.OrderItemRepository
	Expenses     finance.ExpenseRepository
	ExpenseTypes finance.ExpenseTypeRepository
}

// UnitOfWork runs fn with repositories bound to a single transaction.
// A returned error rolls the transaction back; each import row runs in
// its own unit so one bad row never poisons its neighbors.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
