// Package trade contains customers, addresses, orders and order items:
// the entities the import pipeline upserts from the external source.
package trade

import (
	"context"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is matched by email when present, else by the composite of
// (no email, name, phone) for anonymous marketplace orders.
type Customer struct {
	shared.BaseEntity
	Email string
	Name  string
	Phone string
}

// NewCustomer creates a customer from import contact fields
func NewCustomer(email, name, phone string) *Customer {
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
	}
}

// ApplyContact updates name and phone only when the incoming value is
// non-empty and differs. Returns true when anything changed.
func (c *Customer) ApplyContact(name, phone string) bool {
	changed := false
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name != "" && name != c.Name {
		c.Name = name
		changed = true
	}
	if phone != "" && phone != c.Phone {
		c.Phone = phone
		changed = true
	}
	if changed {
		c.Touch()
	}
	return changed
}

// IsAnonymous returns true when the customer has no email
func (c *Customer) IsAnonymous() bool {
	return c.Email == ""
}

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	// FindAnonymous matches customers with no email on (name, phone)
	FindAnonymous(ctx context.Context, name, phone string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
}
