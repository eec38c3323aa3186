// Package finance contains expenses and expense types imported from the
// external source.
package finance

import (
	"context"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// ExpenseType is shared reference data, keyed by its external numeric ID
type ExpenseType struct {
	shared.BaseEntity
	ExternalID int64
	Name       string
}

// NewExpenseType creates an expense type from external reference data
func NewExpenseType(externalID int64, name string) (*ExpenseType, error) {
	if externalID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "expense type requires a positive external id")
	}
	return &ExpenseType{
		BaseEntity: shared.NewBaseEntity(),
		ExternalID: externalID,
		Name:       strings.TrimSpace(name),
	}, nil
}

// Expense inherits access from its product. The external system exposes
// no stable primary key usable locally, so the match key is the triple
// (ExpenseDate, ProductID, ExternalExpenseID).
type Expense struct {
	shared.BaseEntity
	ExpenseDate       time.Time
	ProductID         uuid.UUID
	ExternalExpenseID int64
	ExpenseTypeID     uuid.UUID
	Amount            string
	Description       string
}

// ApplyRow updates mutable fields from an import row. Returns true when
// anything changed; monetary comparison uses the change epsilon.
func (e *Expense) ApplyRow(expenseTypeID uuid.UUID, amount, description string) bool {
	changed := false
	if e.ExpenseTypeID != expenseTypeID {
		e.ExpenseTypeID = expenseTypeID
		changed = true
	}
	if trade.AmountChanged(e.Amount, amount) {
		e.Amount = amount
		changed = true
	}
	if description != "" && description != e.Description {
		e.Description = description
		changed = true
	}
	if changed {
		e.Touch()
	}
	return changed
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	// FindByNaturalKey matches on the (date, product, external id) triple.
	// The date comparison is day-granular.
	FindByNaturalKey(ctx context.Context, expenseDate time.Time, productID uuid.UUID, externalExpenseID int64) (*Expense, error)
	// ListByIDs returns the expenses whose IDs are in the set; an empty
	// set returns no rows.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
	Update(ctx context.Context, expense *Expense) error
}

// ExpenseTypeRepository persists expense types. ExternalID is the natural key.
type ExpenseTypeRepository interface {
	FindByExternalID(ctx context.Context, externalID int64) (*ExpenseType, error)
	Save(ctx context.Context, expenseType *ExpenseType) error
	Update(ctx context.Context, expenseType *ExpenseType) error
}
