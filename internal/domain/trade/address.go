package trade

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AddressType classifies how an address is used on orders
type AddressType string

const (
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBoth     AddressType = "both"
)

// AddressFields is the raw field set derived from one side (billing or
// shipping) of an external order row.
type AddressFields struct {
	Address  string
	Address2 string
	City     string
	State    string
	Zip      string
	Country  string
}

// IsPresent reports whether the field set describes a real address.
// At least one of address, city or zip must be non-empty; this keeps
// empty placeholder rows out of the address table.
func (f AddressFields) IsPresent() bool {
	return strings.TrimSpace(f.Address) != "" ||
		strings.TrimSpace(f.City) != "" ||
		strings.TrimSpace(f.Zip) != ""
}

// Hash returns the dedup key: an md5 over the lower-cased, trimmed
// concatenation of all fields. Two field sets with the same hash are the
// same address for dedup purposes.
func (f AddressFields) Hash() string {
	parts := []string{f.Address, f.Address2, f.City, f.State, f.Zip, f.Country}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Equals compares two field sets case-insensitively field by field
func (f AddressFields) Equals(other AddressFields) bool {
	return f.Hash() == other.Hash()
}

// Address is a deduplicated customer address. Uniqueness is
// (customer_id, hash); a second sighting under the other usage type
// promotes the type to both.
type Address struct {
	shared.BaseEntity
	CustomerID uuid.UUID
	Type       AddressType
	Hash       string
	AddressFields
}

// NewAddress creates an address for a customer from derived fields
func NewAddress(customerID uuid.UUID, addrType AddressType, fields AddressFields) *Address {
	return &Address{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Type:          addrType,
		Hash:          fields.Hash(),
		AddressFields: fields,
	}
}

// PromoteType widens the usage type when the same address shows up under
// the other variant. Returns true when the type changed.
func (a *Address) PromoteType(incoming AddressType) bool {
	if a.Type == incoming || a.Type == AddressTypeBoth {
		return false
	}
	a.Type = AddressTypeBoth
	a.Touch()
	return true
}

// AddressRepository persists addresses and the order-address join
type AddressRepository interface {
	FindByCustomerAndHash(ctx context.Context, customerID uuid.UUID, hash string) (*Address, error)
	Save(ctx context.Context, address *Address) error
	Update(ctx context.Context, address *Address) error
	// AttachToOrder links an address to an order; re-attaching is a no-op
	AttachToOrder(ctx context.Context, orderID, addressID uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Address, error)
}
