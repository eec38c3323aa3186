package importsync

import (
	"context"
	"time"
)

// OrderItemRow is one order line as read from the external source
type OrderItemRow struct {
	ExternalID      int64
	OrderExternalID int64
	ItemID          int64
	Price           string
	Qty             int
}

// OrderRow is one order as read from the external source, eagerly joined
// with lookup tables so downstream services never query the source again.
// The source schema calls the product foreign key "BrandID"; it is mapped
// to ProductID here because that is what it actually references.
type OrderRow struct {
	ExternalID int64
	Date       time.Time
	ProductID  int64
	Agent      string

	// Denormalized lookups
	BrandName    string
	ProductName  string
	CategoryName string
	GenderName   string

	// Contact fields
	Email string
	Name  string
	Phone string

	// Raw monetary values, normalized downstream
	GrandTotal   string
	RefundAmount string

	// Billing address fields
	BillingAddress  string
	BillingAddress2 string
	BillingCity     string
	BillingState    string
	BillingZip      string
	BillingCountry  string

	// Shipping address fields
	ShippingAddress  string
	ShippingAddress2 string
	ShippingCity     string
	ShippingState    string
	ShippingZip      string
	ShippingCountry  string

	// Items are batch-loaded per chunk, never one query per order
	Items []OrderItemRow
}

// ExpenseRow is one expense as read from the external source
type ExpenseRow struct {
	ExternalID      int64
	Date            time.Time
	ProductID       int64
	ExpenseTypeID   int64
	ExpenseTypeName string
	ProductName     string
	BrandName       string
	Amount          string
	Description     string
}

// Cursor marks a row's position in the source's (date, id) keyset order
type Cursor struct {
	Date       time.Time
	ExternalID int64
}

// OrderIterator lazily yields order rows in (date ASC, id ASC) order.
// The sequence is finite and consumed once per run.
type OrderIterator interface {
	// Next returns the next row; ok is false when the stream is drained
	Next(ctx context.Context) (row *OrderRow, ok bool, err error)
	Close() error
}

// ExpenseIterator lazily yields expense rows in (date ASC, id ASC) order
type ExpenseIterator interface {
	Next(ctx context.Context) (row *ExpenseRow, ok bool, err error)
	Close() error
}

// Source is the read-only port onto the external datastore. It performs
// no writes of any kind; this is an absolute contract.
type Source interface {
	// TestConnection performs one trivial round trip. Failure returns
	// false, never an error escaping this boundary.
	TestConnection(ctx context.Context) bool

	// GetOrders bulk-fetches a bounded window, joined with lookups.
	// limit <= 0 means no limit.
	GetOrders(ctx context.Context, from, to time.Time, limit int) ([]OrderRow, error)

	// GetExpenses bulk-fetches a bounded window, joined with lookups
	GetExpenses(ctx context.Context, from, to time.Time, limit int) ([]ExpenseRow, error)

	// StreamOrdersIncremental resumes strictly after the cursor using
	// keyset pagination: date > since.Date OR (date = since.Date AND
	// id > since.ExternalID). Never offset-based.
	StreamOrdersIncremental(ctx context.Context, since Cursor) OrderIterator

	// StreamOrdersByDateRange streams a window, internally paged
	// day-by-day to bound per-query result size.
	StreamOrdersByDateRange(ctx context.Context, from, to time.Time) OrderIterator

	// StreamExpensesIncremental resumes strictly after the cursor
	StreamExpensesIncremental(ctx context.Context, since Cursor) ExpenseIterator

	// StreamExpensesByDateRange streams a window, paged day-by-day
	StreamExpensesByDateRange(ctx context.Context, from, to time.Time) ExpenseIterator
}
