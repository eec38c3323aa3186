package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CustomerImportService deduplicates customers from order contact fields.
// A customer with an email is matched by email; an anonymous one is
// matched by (name, phone) among email-less rows.
type CustomerImportService struct {
	repos  Repos
	logger *zap.Logger
}

// NewCustomerImportService creates a customer import service
func NewCustomerImportService(repos Repos, logger *zap.Logger) *CustomerImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerImportService{repos: repos, logger: logger}
}

// ImportContact finds or creates the customer for one order's contact
// fields. All-empty contact fields yield no customer at all (marketplace
// orders have none), returned as (nil, nil).
func (s *CustomerImportService) ImportContact(ctx context.Context, email, name, phone string) (*trade.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if email == "" && name == "" && phone == "" {
		return nil, nil
	}

	var (
		customer *trade.Customer
		err      error
	)
	if email != "" {
		customer, err = s.repos.Customers.FindByEmail(ctx, email)
	} else {
		customer, err = s.repos.Customers.FindAnonymous(ctx, name, phone)
	}
	if err == nil {
		if customer.ApplyContact(name, phone) {
			if err := s.repos.Customers.Update(ctx, customer); err != nil {
				return nil, err
			}
		}
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	customer = trade.NewCustomer(email, name, phone)
	if err := s.repos.Customers.Save(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
