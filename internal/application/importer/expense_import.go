package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ExpenseImportService upserts expense rows, matched by the day-granular
// (date, product, external id) triple since the source has no usable
// primary key for them.
type ExpenseImportService struct {
	repos  Repos
	refs   *ReferenceSyncService
	policy importsync.ReferencePolicy
	logger *zap.Logger
}

// NewExpenseImportService creates an expense import service over a repo set
func NewExpenseImportService(repos Repos, policy importsync.ReferencePolicy, logger *zap.Logger) *ExpenseImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseImportService{
		repos:  repos,
		refs:   NewReferenceSyncService(repos, logger),
		policy: policy,
		logger: logger,
	}
}

// ImportRow imports one external expense row idempotently. The expense
// type is resolved before the product: product creation does not depend
// on it, but the expense itself needs both present.
func (s *ExpenseImportService) ImportRow(ctx context.Context, row *importsync.ExpenseRow) (importsync.Outcome, error) {
	expenseType, err := s.resolveExpenseType(ctx, row)
	if err != nil {
		return importsync.OutcomeSkipped, err
	}
	if expenseType == nil {
		s.logger.Warn("skipping expense, expense type missing",
			zap.Int64("expense_external_id", row.ExternalID),
			zap.Int64("expense_type_external_id", row.ExpenseTypeID))
		return importsync.OutcomeSkipped, nil
	}

	product, err := s.resolveProduct(ctx, row)
	if err != nil {
		return importsync.OutcomeSkipped, err
	}
	if product == nil {
		s.logger.Warn("skipping expense, product missing",
			zap.Int64("expense_external_id", row.ExternalID),
			zap.Int64("product_external_id", row.ProductID))
		return importsync.OutcomeSkipped, nil
	}

	amount, _ := trade.NormalizeAmount(row.Amount)

	expense, err := s.repos.Expenses.FindByNaturalKey(ctx, row.Date, product.ID, row.ExternalID)
	if errors.Is(err, shared.ErrNotFound) {
		expense = &finance.Expense{
			BaseEntity:        shared.NewBaseEntity(),
			ExpenseDate:       row.Date,
			ProductID:         product.ID,
			ExternalExpenseID: row.ExternalID,
			ExpenseTypeID:     expenseType.ID,
			Amount:            amount,
			Description:       row.Description,
		}
		if err := s.repos.Expenses.Save(ctx, expense); err != nil {
			if !errors.Is(err, shared.ErrAlreadyExists) {
				return importsync.OutcomeSkipped, err
			}
			// Concurrent create; fall through to the update path.
			expense, err = s.repos.Expenses.FindByNaturalKey(ctx, row.Date, product.ID, row.ExternalID)
			if err != nil {
				return importsync.OutcomeSkipped, err
			}
		} else {
			return importsync.OutcomeCreated, nil
		}
	} else if err != nil {
		return importsync.OutcomeSkipped, err
	}

	if expense.ApplyRow(expenseType.ID, amount, row.Description) {
		if err := s.repos.Expenses.Update(ctx, expense); err != nil {
			return importsync.OutcomeSkipped, err
		}
		return importsync.OutcomeUpdated, nil
	}
	return importsync.OutcomeUnchanged, nil
}

func (s *ExpenseImportService) resolveExpenseType(ctx context.Context, row *importsync.ExpenseRow) (*finance.ExpenseType, error) {
	t, err := s.repos.ExpenseTypes.FindByExternalID(ctx, row.ExpenseTypeID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if s.policy != importsync.PolicyAutoCreate || row.ExpenseTypeID <= 0 {
		return nil, nil
	}
	return s.refs.SyncExpenseType(ctx, row.ExpenseTypeID, row.ExpenseTypeName)
}

func (s *ExpenseImportService) resolveProduct(ctx context.Context, row *importsync.ExpenseRow) (*catalog.Product, error) {
	p, err := s.repos.Products.FindByExternalID(ctx, row.ProductID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if s.policy != importsync.PolicyAutoCreate || strings.TrimSpace(row.BrandName) == "" {
		return nil, nil
	}
	return s.refs.SyncProduct(ctx, row.ProductID, row.ProductName, row.BrandName, "", "")
}
