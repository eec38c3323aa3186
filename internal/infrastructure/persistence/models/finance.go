package models

import (
	"time"

	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/google/uuid"
)

// ExpenseTypeModel persists expense types; external_id is the natural key
type ExpenseTypeModel struct {
	BaseModel
	ExternalID int64  `gorm:"not null;uniqueIndex"`
	Name       string `gorm:"size:200"`
}

// TableName returns the table name for ExpenseTypeModel
func (ExpenseTypeModel) TableName() string {
	return "expense_types"
}

// ToDomain converts the model to a domain expense type
func (m *ExpenseTypeModel) ToDomain() *finance.ExpenseType {
	return &finance.ExpenseType{
		BaseEntity: m.BaseModel.ToDomain(),
		ExternalID: m.ExternalID,
		Name:       m.Name,
	}
}

// FromDomain populates the model from a domain expense type
func (m *ExpenseTypeModel) FromDomain(t *finance.ExpenseType) {
	m.BaseModel.FromDomain(t.BaseEntity)
	m.ExternalID = t.ExternalID
	m.Name = t.Name
}

// ExpenseModel persists expenses. The natural key is the triple
// (expense_date, product_id, external_expense_id); expense_date is stored
// truncated to the day so the unique index matches day-granular lookups.
type ExpenseModel struct {
	BaseModel
	ExpenseDate       time.Time `gorm:"type:date;not null;uniqueIndex:idx_expenses_natural;index"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_expenses_natural;index"`
	ExternalExpenseID int64     `gorm:"not null;uniqueIndex:idx_expenses_natural"`
	ExpenseTypeID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount            string    `gorm:"size:32;not null;default:'0.00'"`
	Description       string    `gorm:"size:500"`
}

// TableName returns the table name for ExpenseModel
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the model to a domain expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseEntity:        m.BaseModel.ToDomain(),
		ExpenseDate:       m.ExpenseDate,
		ProductID:         m.ProductID,
		ExternalExpenseID: m.ExternalExpenseID,
		ExpenseTypeID:     m.ExpenseTypeID,
		Amount:            m.Amount,
		Description:       m.Description,
	}
}

// FromDomain populates the model from a domain expense
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.BaseModel.FromDomain(e.BaseEntity)
	m.ExpenseDate = e.ExpenseDate.Truncate(24 * time.Hour)
	m.ProductID = e.ProductID
	m.ExternalExpenseID = e.ExternalExpenseID
	m.ExpenseTypeID = e.ExpenseTypeID
	m.Amount = e.Amount
	m.Description = e.Description
}
