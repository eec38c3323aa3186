package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderImportService upserts one order row: the order itself, its items,
// its customer and its addresses. All writes happen inside the caller's
// unit of work.
type OrderImportService struct {
	repos     Repos
	refs      *ReferenceSyncService
	customers *CustomerImportService
	addresses *AddressImportService
	policy    importsync.ReferencePolicy
	logger    *zap.Logger
}

// NewOrderImportService creates an order import service over a repo set
func NewOrderImportService(repos Repos, policy importsync.ReferencePolicy, logger *zap.Logger) *OrderImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderImportService{
		repos:     repos,
		refs:      NewReferenceSyncService(repos, logger),
		customers: NewCustomerImportService(repos, logger),
		addresses: NewAddressImportService(repos, logger),
		policy:    policy,
		logger:    logger,
	}
}

// ImportRow imports one external order row idempotently. The outcome
// reflects the order record; item and address side effects carry no
// counter of their own.
func (s *OrderImportService) ImportRow(ctx context.Context, row *importsync.OrderRow) (importsync.Outcome, error) {
	product, err := s.resolveProduct(ctx, row)
	if err != nil {
		return importsync.OutcomeSkipped, err
	}
	if product == nil {
		s.logger.Warn("skipping order, product missing",
			zap.Int64("order_external_id", row.ExternalID),
			zap.Int64("product_external_id", row.ProductID))
		return importsync.OutcomeSkipped, nil
	}

	customer, err := s.customers.ImportContact(ctx, row.Email, row.Name, row.Phone)
	if err != nil {
		return importsync.OutcomeSkipped, err
	}
	var customerID *uuid.UUID
	if customer != nil {
		customerID = &customer.ID
	}

	flags := trade.DeriveOrderFlags(row.Email, row.Name, row.Phone, row.Agent, row.GrandTotal, row.RefundAmount)

	order, outcome, err := s.upsertOrder(ctx, row, product.ID, customerID, flags)
	if err != nil {
		return importsync.OutcomeSkipped, err
	}

	for i := range row.Items {
		if err := s.importItem(ctx, order.ID, row.Items[i]); err != nil {
			return outcome, err
		}
	}

	if customer != nil {
		billing := trade.AddressFields{
			Address:  row.BillingAddress,
			Address2: row.BillingAddress2,
			City:     row.BillingCity,
			State:    row.BillingState,
			Zip:      row.BillingZip,
			Country:  row.BillingCountry,
		}
		shipping := trade.AddressFields{
			Address:  row.ShippingAddress,
			Address2: row.ShippingAddress2,
			City:     row.ShippingCity,
			State:    row.ShippingState,
			Zip:      row.ShippingZip,
			Country:  row.ShippingCountry,
		}
		if err := s.addresses.ImportForOrder(ctx, customer.ID, order.ID, billing, shipping); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// resolveProduct returns nil without error when the reference is missing
// and the policy says skip.
func (s *OrderImportService) resolveProduct(ctx context.Context, row *importsync.OrderRow) (*catalog.Product, error) {
	p, err := s.repos.Products.FindByExternalID(ctx, row.ProductID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if s.policy != importsync.PolicyAutoCreate {
		return nil, nil
	}
	// Auto-creation needs a brand to hang the product off; a row without
	// one is still a referential skip.
	if strings.TrimSpace(row.BrandName) == "" {
		return nil, nil
	}
	return s.refs.SyncProduct(ctx, row.ProductID, row.ProductName, row.BrandName, row.CategoryName, row.GenderName)
}

func (s *OrderImportService) upsertOrder(ctx context.Context, row *importsync.OrderRow, productID uuid.UUID, customerID *uuid.UUID, flags trade.DerivedOrderFlags) (*trade.Order, importsync.Outcome, error) {
	order, err := s.repos.Orders.FindByExternalID(ctx, row.ExternalID)
	if errors.Is(err, shared.ErrNotFound) {
		order = &trade.Order{
			BaseEntity: shared.NewBaseEntity(),
			ExternalID: row.ExternalID,
			ProductID:  productID,
			CustomerID: customerID,
			OrderDate:  row.Date,
			Agent:      row.Agent,
		}
		order.ApplyFlags(flags)
		if err := s.repos.Orders.Save(ctx, order); err != nil {
			if !errors.Is(err, shared.ErrAlreadyExists) {
				return nil, importsync.OutcomeSkipped, err
			}
			// Concurrent create; re-read and continue as an update.
			order, err = s.repos.Orders.FindByExternalID(ctx, row.ExternalID)
			if err != nil {
				return nil, importsync.OutcomeSkipped, err
			}
		} else {
			return order, importsync.OutcomeCreated, nil
		}
	} else if err != nil {
		return nil, importsync.OutcomeSkipped, err
	}

	changed := false
	if order.ProductID != productID {
		order.ProductID = productID
		changed = true
	}
	if customerID != nil && (order.CustomerID == nil || *order.CustomerID != *customerID) {
		order.CustomerID = customerID
		changed = true
	}
	if !order.OrderDate.Equal(row.Date) {
		order.OrderDate = row.Date
		changed = true
	}
	if row.Agent != "" && order.Agent != row.Agent {
		order.Agent = row.Agent
		changed = true
	}
	if order.ApplyFlags(flags) {
		changed = true
	}
	if !changed {
		return order, importsync.OutcomeUnchanged, nil
	}
	order.Touch()
	if err := s.repos.Orders.Update(ctx, order); err != nil {
		return nil, importsync.OutcomeSkipped, err
	}
	return order, importsync.OutcomeUpdated, nil
}

// importItem upserts one order line. A missing product item skips the
// line without failing the order.
func (s *OrderImportService) importItem(ctx context.Context, orderID uuid.UUID, row importsync.OrderItemRow) error {
	productItem, err := s.repos.ProductItems.FindByExternalItemID(ctx, row.ItemID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("skipping order item, product item missing",
			zap.Int64("order_item_external_id", row.ExternalID),
			zap.Int64("item_id", row.ItemID))
		return nil
	}
	if err != nil {
		return err
	}

	price, _ := trade.NormalizeAmount(row.Price)

	item, err := s.repos.OrderItems.FindByExternalID(ctx, row.ExternalID)
	if errors.Is(err, shared.ErrNotFound) {
		item = &trade.OrderItem{
			BaseEntity:    shared.NewBaseEntity(),
			ExternalID:    row.ExternalID,
			OrderID:       orderID,
			ProductItemID: productItem.ID,
			ItemID:        row.ItemID,
			Price:         price,
			Qty:           row.Qty,
		}
		if err := s.repos.OrderItems.Save(ctx, item); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}

	if item.ApplyRow(orderID, productItem.ID, row.ItemID, price, row.Qty) {
		return s.repos.OrderItems.Update(ctx, item)
	}
	return nil
}
