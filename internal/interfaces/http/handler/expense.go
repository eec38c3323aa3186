package handler

import (
	"time"

	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler serves access-scoped expense reads. Expenses inherit
// access from their product.
type ExpenseHandler struct {
	BaseHandler
	gate     *accessapp.Gate
	resolver access.Resolver
	expenses finance.ExpenseRepository
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(gate *accessapp.Gate, resolver access.Resolver, expenses finance.ExpenseRepository) *ExpenseHandler {
	return &ExpenseHandler{gate: gate, resolver: resolver, expenses: expenses}
}

// ExpenseResponse represents an expense in the response
type ExpenseResponse struct {
	ID                uuid.UUID `json:"id"`
	ExpenseDate       time.Time `json:"expense_date"`
	ProductID         uuid.UUID `json:"product_id"`
	ExternalExpenseID int64     `json:"external_expense_id"`
	ExpenseTypeID     uuid.UUID `json:"expense_type_id"`
	Amount            string    `json:"amount"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:                e.ID,
		ExpenseDate:       e.ExpenseDate,
		ProductID:         e.ProductID,
		ExternalExpenseID: e.ExternalExpenseID,
		ExpenseTypeID:     e.ExpenseTypeID,
		Amount:            e.Amount,
		Description:       e.Description,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// RegisterRoutes registers the expense routes
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/expenses", h.ListExpenses)
	rg.GET("/expenses/:id", h.GetExpense)
}

// ListExpenses returns the expenses accessible to the caller
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionViewAny, access.KindExpense, nil); err != nil {
		h.HandleError(c, err)
		return
	}
	ids, err := h.resolver.Resolve(ctx, *principal, access.KindExpense)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	expenses, err := h.expenses.ListByIDs(ctx, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		out = append(out, newExpenseResponse(&expenses[i]))
	}
	h.List(c, out)
}

// GetExpense returns one expense through the three-way gate
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid expense ID")
		return
	}
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionView, access.KindExpense, &id); err != nil {
		h.HandleError(c, err)
		return
	}
	expense, err := h.expenses.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, newExpenseResponse(expense))
}
