package importer

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressImportService deduplicates addresses per customer by normalized
// hash and links them to the orders they appeared on.
type AddressImportService struct {
	repos  Repos
	logger *zap.Logger
}

// NewAddressImportService creates an address import service
func NewAddressImportService(repos Repos, logger *zap.Logger) *AddressImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressImportService{repos: repos, logger: logger}
}

// ImportForOrder upserts the billing and shipping addresses of one order.
// When both sides hash to the same address it is stored once with type
// both; a repeat sighting under the other usage type promotes the stored
// type to both.
func (s *AddressImportService) ImportForOrder(ctx context.Context, customerID, orderID uuid.UUID, billing, shipping trade.AddressFields) error {
	billingPresent := billing.IsPresent()
	shippingPresent := shipping.IsPresent()

	if billingPresent && shippingPresent && billing.Equals(shipping) {
		return s.upsert(ctx, customerID, orderID, trade.AddressTypeBoth, billing)
	}
	if billingPresent {
		if err := s.upsert(ctx, customerID, orderID, trade.AddressTypeBilling, billing); err != nil {
			return err
		}
	}
	if shippingPresent {
		if err := s.upsert(ctx, customerID, orderID, trade.AddressTypeShipping, shipping); err != nil {
			return err
		}
	}
	return nil
}

func (s *AddressImportService) upsert(ctx context.Context, customerID, orderID uuid.UUID, addrType trade.AddressType, fields trade.AddressFields) error {
	address, err := s.repos.Addresses.FindByCustomerAndHash(ctx, customerID, fields.Hash())
	if errors.Is(err, shared.ErrNotFound) {
		address = trade.NewAddress(customerID, addrType, fields)
		if err := s.repos.Addresses.Save(ctx, address); err != nil {
			if !errors.Is(err, shared.ErrAlreadyExists) {
				return err
			}
			// Concurrent create; re-read the winner and fall through to
			// the promotion check.
			address, err = s.repos.Addresses.FindByCustomerAndHash(ctx, customerID, fields.Hash())
			if err != nil {
				return err
			}
		}
	} else if err != nil {
		return err
	}

	if address.PromoteType(addrType) {
		if err := s.repos.Addresses.Update(ctx, address); err != nil {
			return err
		}
	}
	return s.repos.Addresses.AttachToOrder(ctx, orderID, address.ID)
}
