package handler

import (
	"time"

	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler serves access-scoped order reads. Order access is direct
// grants only; nothing inherits down to orders.
type OrderHandler struct {
	BaseHandler
	gate     *accessapp.Gate
	resolver access.Resolver
	orders   trade.OrderRepository
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(gate *accessapp.Gate, resolver access.Resolver, orders trade.OrderRepository) *OrderHandler {
	return &OrderHandler{gate: gate, resolver: resolver, orders: orders}
}

// OrderResponse represents an order in the response
type OrderResponse struct {
	ID                    uuid.UUID  `json:"id"`
	ExternalID            int64      `json:"external_id"`
	ProductID             uuid.UUID  `json:"product_id"`
	CustomerID            *uuid.UUID `json:"customer_id"`
	OrderDate             time.Time  `json:"order_date"`
	Agent                 string     `json:"agent"`
	GrandTotal            string     `json:"grand_total"`
	RefundAmount          string     `json:"refund_amount"`
	IsMarketplace         bool       `json:"is_marketplace"`
	HasMissingContactInfo bool       `json:"has_missing_contact_info"`
	IsRefunded            bool       `json:"is_refunded"`
	IsPartialRefund       bool       `json:"is_partial_refund"`
	RefundAmountIsValid   bool       `json:"refund_amount_is_valid"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func newOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:                    o.ID,
		ExternalID:            o.ExternalID,
		ProductID:             o.ProductID,
		CustomerID:            o.CustomerID,
		OrderDate:             o.OrderDate,
		Agent:                 o.Agent,
		GrandTotal:            o.GrandTotal,
		RefundAmount:          o.RefundAmount,
		IsMarketplace:         o.IsMarketplace,
		HasMissingContactInfo: o.HasMissingContactInfo,
		IsRefunded:            o.IsRefunded,
		IsPartialRefund:       o.IsPartialRefund,
		RefundAmountIsValid:   o.RefundAmountIsValid,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", h.ListOrders)
	rg.GET("/orders/:id", h.GetOrder)
}

// ListOrders returns the orders accessible to the caller
func (h *OrderHandler) ListOrders(c *gin.Context) {
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionViewAny, access.KindOrder, nil); err != nil {
		h.HandleError(c, err)
		return
	}
	ids, err := h.resolver.Resolve(ctx, *principal, access.KindOrder)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	orders, err := h.orders.ListByIDs(ctx, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	h.List(c, out)
}

// GetOrder returns one order through the three-way gate
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionView, access.KindOrder, &id); err != nil {
		h.HandleError(c, err)
		return
	}
	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, newOrderResponse(order))
}
