package trade

import (
	"context"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// marketplaceAgentKeywords flag orders routed through third-party
// fulfillment channels even when some contact fields survive.
var marketplaceAgentKeywords = []string{"amazon", "ebay", "walmart", "fba", "marketplace"}

// Order is an imported sales order, keyed by its external ID
type Order struct {
	shared.BaseEntity
	ExternalID int64
	ProductID  uuid.UUID
	CustomerID *uuid.UUID
	OrderDate  time.Time
	Agent      string

	// Monetary fields are stored as fixed 2-decimal strings
	GrandTotal   string
	RefundAmount string

	// Derived flags, recomputed on every import sighting
	IsMarketplace         bool
	HasMissingContactInfo bool
	IsRefunded            bool
	IsPartialRefund       bool
	RefundAmountIsValid   bool
}

// DerivedOrderFlags captures the computed flag set for one order row
type DerivedOrderFlags struct {
	IsMarketplace         bool
	HasMissingContactInfo bool
	IsRefunded            bool
	IsPartialRefund       bool
	RefundAmountIsValid   bool
	GrandTotal            string
	RefundAmount          string
}

// DeriveOrderFlags computes the derived order fields from raw import
// contact and monetary values. Unparseable refund amounts are recorded
// with RefundAmountIsValid=false rather than rejecting the row.
func DeriveOrderFlags(email, name, phone, agent, rawGrandTotal, rawRefundAmount string) DerivedOrderFlags {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	grandTotal, _ := NormalizeAmount(rawGrandTotal)
	refund, refundValid := NormalizeAmount(rawRefundAmount)

	noContact := email == "" && name == "" && phone == ""
	refunded := AmountPositive(refund)

	return DerivedOrderFlags{
		IsMarketplace:         noContact || agentLooksLikeMarketplace(agent),
		HasMissingContactInfo: email == "" || name == "" || phone == "",
		IsRefunded:            refunded,
		IsPartialRefund:       refunded && AmountLess(refund, grandTotal),
		RefundAmountIsValid:   refundValid,
		GrandTotal:            grandTotal,
		RefundAmount:          refund,
	}
}

func agentLooksLikeMarketplace(agent string) bool {
	agent = strings.ToLower(agent)
	for _, kw := range marketplaceAgentKeywords {
		if strings.Contains(agent, kw) {
			return true
		}
	}
	return false
}

// ApplyFlags overwrites the derived fields. Returns true when a monetary
// value or flag actually changed (monetary comparison uses the change
// epsilon, not exact equality).
func (o *Order) ApplyFlags(f DerivedOrderFlags) bool {
	changed := false
	if AmountChanged(o.GrandTotal, f.GrandTotal) {
		o.GrandTotal = f.GrandTotal
		changed = true
	}
	if AmountChanged(o.RefundAmount, f.RefundAmount) {
		o.RefundAmount = f.RefundAmount
		changed = true
	}
	if o.IsMarketplace != f.IsMarketplace ||
		o.HasMissingContactInfo != f.HasMissingContactInfo ||
		o.IsRefunded != f.IsRefunded ||
		o.IsPartialRefund != f.IsPartialRefund ||
		o.RefundAmountIsValid != f.RefundAmountIsValid {
		changed = true
	}
	o.IsMarketplace = f.IsMarketplace
	o.HasMissingContactInfo = f.HasMissingContactInfo
	o.IsRefunded = f.IsRefunded
	o.IsPartialRefund = f.IsPartialRefund
	o.RefundAmountIsValid = f.RefundAmountIsValid
	if changed {
		o.Touch()
	}
	return changed
}

// OrderItem is an imported order line, keyed by its external ID and
// linked to a product item by the external ItemID natural key.
type OrderItem struct {
	shared.BaseEntity
	ExternalID    int64
	OrderID       uuid.UUID
	ProductItemID uuid.UUID
	ItemID        int64
	Price         string
	Qty           int
}

// ApplyRow updates the mutable fields of an order item, comparing
// field by field. Returns true when anything changed.
func (i *OrderItem) ApplyRow(orderID, productItemID uuid.UUID, itemID int64, price string, qty int) bool {
	changed := false
	if i.OrderID != orderID {
		i.OrderID = orderID
		changed = true
	}
	if i.ProductItemID != productItemID {
		i.ProductItemID = productItemID
		changed = true
	}
	if i.ItemID != itemID {
		i.ItemID = itemID
		changed = true
	}
	if AmountChanged(i.Price, price) {
		i.Price = price
		changed = true
	}
	if i.Qty != qty {
		i.Qty = qty
		changed = true
	}
	if changed {
		i.Touch()
	}
	return changed
}

// OrderRepository persists orders. ExternalID is the natural key.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByExternalID(ctx context.Context, externalID int64) (*Order, error)
	// ListByIDs returns the orders whose IDs are in the set; an empty set
	// returns no rows.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
}

// OrderItemRepository persists order items. ExternalID is the natural key.
type OrderItemRepository interface {
	FindByExternalID(ctx context.Context, externalID int64) (*OrderItem, error)
	Save(ctx context.Context, item *OrderItem) error
	Update(ctx context.Context, item *OrderItem) error
}
