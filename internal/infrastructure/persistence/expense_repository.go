package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNaturalKey matches on the day-truncated (date, product, external id) triple
func (r *GormExpenseRepository) FindByNaturalKey(ctx context.Context, expenseDate time.Time, productID uuid.UUID, externalExpenseID int64) (*finance.Expense, error) {
	day := expenseDate.Truncate(24 * time.Hour)
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("expense_date = ? AND product_id = ? AND external_expense_id = ?", day, productID, externalExpenseID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByIDs returns the expenses whose IDs are in the set
func (r *GormExpenseRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("expense_date DESC, external_expense_id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	expenses := make([]finance.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return expenses, nil
}

// Save creates an expense; a duplicate natural key surfaces ErrAlreadyExists
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	var model models.ExpenseModel
	model.FromDomain(expense)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing expense
func (r *GormExpenseRepository) Update(ctx context.Context, expense *finance.Expense) error {
	var model models.ExpenseModel
	model.FromDomain(expense)
	result := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"expense_type_id": model.ExpenseTypeID,
			"amount":          model.Amount,
			"description":     model.Description,
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

// Ensure GormExpenseRepository implements ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)

// GormExpenseTypeRepository implements finance.ExpenseTypeRepository using GORM
type GormExpenseTypeRepository struct {
	db *gorm.DB
}

// NewGormExpenseTypeRepository creates a new GormExpenseTypeRepository
func NewGormExpenseTypeRepository(db *gorm.DB) *GormExpenseTypeRepository {
	return &GormExpenseTypeRepository{db: db}
}

// FindByExternalID finds an expense type by its external natural key
func (r *GormExpenseTypeRepository) FindByExternalID(ctx context.Context, externalID int64) (*finance.ExpenseType, error) {
	var model models.ExpenseTypeModel
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

// Save creates an expense type; a duplicate external ID surfaces ErrAlreadyExists
func (r *GormExpenseTypeRepository) Save(ctx context.Context, expenseType *finance.ExpenseType) error {
	var model models.ExpenseTypeModel
	model.FromDomain(expenseType)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing expense type
func (r *GormExpenseTypeRepository) Update(ctx context.Context, expenseType *finance.ExpenseType) error {
	var model models.ExpenseTypeModel
	model.FromDomain(expenseType)
	result := r.db.WithContext(ctx).Model(&models.ExpenseTypeModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":       model.Name,
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

// Ensure GormExpenseTypeRepository implements ExpenseTypeRepository
var _ finance.ExpenseTypeRepository = (*GormExpenseTypeRepository)(nil)
