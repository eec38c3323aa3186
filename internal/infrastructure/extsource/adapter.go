// Package extsource is the read-only adapter onto the external datastore
// the import pipeline pulls from. It issues SELECTs only; nothing in this
// package writes to the source.
package extsource

import (
	"context"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The external schema predates this system and its naming is misleading:
// the "brands" table holds what we call products, "manufacturers" holds
// what we call brands, and the orders/expenses brand_id column references
// a product. The queries below alias everything to honest names so the
// confusion stops at this boundary.

const orderSelect = `
SELECT o.order_id AS external_id,
       o.order_date AS date,
       o.brand_id AS product_id,
       o.agent,
       o.email, o.name, o.phone,
       o.grand_total, o.refund_amount,
       o.billing_address, o.billing_address2, o.billing_city,
       o.billing_state, o.billing_zip, o.billing_country,
       o.shipping_address, o.shipping_address2, o.shipping_city,
       o.shipping_state, o.shipping_zip, o.shipping_country,
       COALESCE(b.brand_name, '') AS product_name,
       COALESCE(m.manufacturer_name, '') AS brand_name,
       COALESCE(c.category_name, '') AS category_name,
       COALESCE(g.gender_name, '') AS gender_name
FROM orders o
LEFT JOIN brands b ON b.brand_id = o.brand_id
LEFT JOIN manufacturers m ON m.manufacturer_id = b.manufacturer_id
LEFT JOIN categories c ON c.category_id = b.category_id
LEFT JOIN genders g ON g.gender_id = b.gender_id`

const expenseSelect = `
SELECT e.expense_id AS external_id,
       e.expense_date AS date,
       e.brand_id AS product_id,
       e.expense_type_id,
       COALESCE(t.type_name, '') AS expense_type_name,
       COALESCE(b.brand_name, '') AS product_name,
       COALESCE(m.manufacturer_name, '') AS brand_name,
       e.amount, e.description
FROM expenses e
LEFT JOIN expense_types t ON t.expense_type_id = e.expense_type_id
LEFT JOIN brands b ON b.brand_id = e.brand_id
LEFT JOIN manufacturers m ON m.manufacturer_id = b.manufacturer_id`

const orderItemSelect = `
SELECT i.order_item_id AS external_id,
       i.order_id AS order_external_id,
       i.item_id, i.price, i.qty
FROM order_items i
WHERE i.order_id IN ?
ORDER BY i.order_item_id ASC`

// orderScanRow matches the aliased order select
type orderScanRow struct {
	ExternalID       int64
	Date             time.Time
	ProductID        int64
	Agent            string
	Email            string
	Name             string
	Phone            string
	GrandTotal       string
	RefundAmount     string
	BillingAddress   string
	BillingAddress2  string
	BillingCity      string
	BillingState     string
	BillingZip       string
	BillingCountry   string
	ShippingAddress  string
	ShippingAddress2 string
	ShippingCity     string
	ShippingState    string
	ShippingZip      string
	ShippingCountry  string
	ProductName      string
	BrandName        string
	CategoryName     string
	GenderName       string
}

// expenseScanRow matches the aliased expense select
type expenseScanRow struct {
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

// itemScanRow matches the order item select
type itemScanRow struct {
	ExternalID      int64
	OrderExternalID int64
	ItemID          int64
	Price           string
	Qty             int
}

// Adapter implements importsync.Source against the foreign database
type Adapter struct {
	db           *gorm.DB
	pageSize     int
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewAdapter opens a connection to the external source
func NewAdapter(cfg config.ExternalSourceConfig, log *zap.Logger) (*Adapter, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to external source: %w", err)
	}
	return NewAdapterWithDB(db, cfg.PageSize, cfg.QueryTimeout, log), nil
}

// NewAdapterWithDB wraps an existing connection; used by tests
func NewAdapterWithDB(db *gorm.DB, pageSize int, queryTimeout time.Duration, log *zap.Logger) *Adapter {
	if pageSize <= 0 {
		pageSize = 500
	}
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{db: db, pageSize: pageSize, queryTimeout: queryTimeout, logger: log}
}

// TestConnection performs one trivial round trip. Failure returns false,
// never an error escaping this boundary.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()
	var one int
	if err := a.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		a.logger.Warn("external source connection test failed", zap.Error(err))
		return false
	}
	return true
}

// GetOrders bulk-fetches a bounded window, joined with lookups.
// limit <= 0 means no limit.
func (a *Adapter) GetOrders(ctx context.Context, from, to time.Time, limit int) ([]importsync.OrderRow, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	query := orderSelect + `
WHERE o.order_date >= ? AND o.order_date <= ?
ORDER BY o.order_date ASC, o.order_id ASC`
	args := []interface{}{from, to}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var scans []orderScanRow
	if err := a.db.WithContext(ctx).Raw(query, args...).Scan(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	rows := make([]importsync.OrderRow, len(scans))
	for i := range scans {
		rows[i] = toOrderRow(scans[i])
	}
	if err := a.attachItems(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetExpenses bulk-fetches a bounded window, joined with lookups
func (a *Adapter) GetExpenses(ctx context.Context, from, to time.Time, limit int) ([]importsync.ExpenseRow, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	query := expenseSelect + `
WHERE e.expense_date >= ? AND e.expense_date <= ?
ORDER BY e.expense_date ASC, e.expense_id ASC`
	args := []interface{}{from, to}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var scans []expenseScanRow
	if err := a.db.WithContext(ctx).Raw(query, args...).Scan(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch expenses: %w", err)
	}
	rows := make([]importsync.ExpenseRow, len(scans))
	for i := range scans {
		rows[i] = toExpenseRow(scans[i])
	}
	return rows, nil
}

// fetchOrderPage returns one keyset page strictly after the cursor,
// optionally bounded by an exclusive upper date.
func (a *Adapter) fetchOrderPage(ctx context.Context, after importsync.Cursor, before *time.Time) ([]importsync.OrderRow, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	query := orderSelect + `
WHERE (o.order_date > ? OR (o.order_date = ? AND o.order_id > ?))`
	args := []interface{}{after.Date, after.Date, after.ExternalID}
	if before != nil {
		query += " AND o.order_date < ?"
		args = append(args, *before)
	}
	query += `
ORDER BY o.order_date ASC, o.order_id ASC
LIMIT ?`
	args = append(args, a.pageSize)

	var scans []orderScanRow
	if err := a.db.WithContext(ctx).Raw(query, args...).Scan(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch order page: %w", err)
	}
	rows := make([]importsync.OrderRow, len(scans))
	for i := range scans {
		rows[i] = toOrderRow(scans[i])
	}
	if err := a.attachItems(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// fetchExpensePage returns one keyset page strictly after the cursor,
// optionally bounded by an exclusive upper date.
func (a *Adapter) fetchExpensePage(ctx context.Context, after importsync.Cursor, before *time.Time) ([]importsync.ExpenseRow, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	query := expenseSelect + `
WHERE (e.expense_date > ? OR (e.expense_date = ? AND e.expense_id > ?))`
	args := []interface{}{after.Date, after.Date, after.ExternalID}
	if before != nil {
		query += " AND e.expense_date < ?"
		args = append(args, *before)
	}
	query += `
ORDER BY e.expense_date ASC, e.expense_id ASC
LIMIT ?`
	args = append(args, a.pageSize)

	var scans []expenseScanRow
	if err := a.db.WithContext(ctx).Raw(query, args...).Scan(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch expense page: %w", err)
	}
	rows := make([]importsync.ExpenseRow, len(scans))
	for i := range scans {
		rows[i] = toExpenseRow(scans[i])
	}
	return rows, nil
}

// attachItems batch-loads the order items of one page in a single query
// and distributes them onto their rows.
func (a *Adapter) attachItems(ctx context.Context, rows []importsync.OrderRow) error {
	if len(rows) == 0 {
		return nil
	}
	orderIDs := make([]int64, len(rows))
	index := make(map[int64]*importsync.OrderRow, len(rows))
	for i := range rows {
		orderIDs[i] = rows[i].ExternalID
		index[rows[i].ExternalID] = &rows[i]
	}

	var scans []itemScanRow
	if err := a.db.WithContext(ctx).Raw(orderItemSelect, orderIDs).Scan(&scans).Error; err != nil {
		return fmt.Errorf("failed to fetch order items: %w", err)
	}
	for _, s := range scans {
		row, ok := index[s.OrderExternalID]
		if !ok {
			continue
		}
		row.Items = append(row.Items, importsync.OrderItemRow{
			ExternalID:      s.ExternalID,
			OrderExternalID: s.OrderExternalID,
			ItemID:          s.ItemID,
			Price:           s.Price,
			Qty:             s.Qty,
		})
	}
	return nil
}

// StreamOrdersIncremental resumes strictly after the cursor using keyset
// pagination, never offsets.
func (a *Adapter) StreamOrdersIncremental(ctx context.Context, since importsync.Cursor) importsync.OrderIterator {
	return newOrderIterator(since, func(ctx context.Context, after importsync.Cursor) ([]importsync.OrderRow, error) {
		return a.fetchOrderPage(ctx, after, nil)
	})
}

// StreamOrdersByDateRange streams a window, internally paged day-by-day
// to bound per-query result size.
func (a *Adapter) StreamOrdersByDateRange(ctx context.Context, from, to time.Time) importsync.OrderIterator {
	windows := dayWindows(from, to)
	return newWindowedOrderIterator(windows, func(ctx context.Context, after importsync.Cursor, before time.Time) ([]importsync.OrderRow, error) {
		return a.fetchOrderPage(ctx, after, &before)
	})
}

// StreamExpensesIncremental resumes strictly after the cursor
func (a *Adapter) StreamExpensesIncremental(ctx context.Context, since importsync.Cursor) importsync.ExpenseIterator {
	return newExpenseIterator(since, func(ctx context.Context, after importsync.Cursor) ([]importsync.ExpenseRow, error) {
		return a.fetchExpensePage(ctx, after, nil)
	})
}

// StreamExpensesByDateRange streams a window, paged day-by-day
func (a *Adapter) StreamExpensesByDateRange(ctx context.Context, from, to time.Time) importsync.ExpenseIterator {
	windows := dayWindows(from, to)
	return newWindowedExpenseIterator(windows, func(ctx context.Context, after importsync.Cursor, before time.Time) ([]importsync.ExpenseRow, error) {
		return a.fetchExpensePage(ctx, after, &before)
	})
}

// dayWindow is one [Start, End) slice of a date range
type dayWindow struct {
	Start time.Time
	End   time.Time
}

// dayWindows cuts [from, to] into day-sized half-open windows
func dayWindows(from, to time.Time) []dayWindow {
	if to.Before(from) {
		return nil
	}
	start := from.Truncate(24 * time.Hour)
	var windows []dayWindow
	for !start.After(to) {
		windows = append(windows, dayWindow{Start: start, End: start.Add(24 * time.Hour)})
		start = start.Add(24 * time.Hour)
	}
	return windows
}

func toOrderRow(s orderScanRow) importsync.OrderRow {
	return importsync.OrderRow{
		ExternalID:       s.ExternalID,
		Date:             s.Date,
		ProductID:        s.ProductID,
		Agent:            s.Agent,
		BrandName:        s.BrandName,
		ProductName:      s.ProductName,
		CategoryName:     s.CategoryName,
		GenderName:       s.GenderName,
		Email:            s.Email,
		Name:             s.Name,
		Phone:            s.Phone,
		GrandTotal:       s.GrandTotal,
		RefundAmount:     s.RefundAmount,
		BillingAddress:   s.BillingAddress,
		BillingAddress2:  s.BillingAddress2,
		BillingCity:      s.BillingCity,
		BillingState:     s.BillingState,
		BillingZip:       s.BillingZip,
		BillingCountry:   s.BillingCountry,
		ShippingAddress:  s.ShippingAddress,
		ShippingAddress2: s.ShippingAddress2,
		ShippingCity:     s.ShippingCity,
		ShippingState:    s.ShippingState,
		ShippingZip:      s.ShippingZip,
		ShippingCountry:  s.ShippingCountry,
	}
}

func toExpenseRow(s expenseScanRow) importsync.ExpenseRow {
	return importsync.ExpenseRow{
		ExternalID:      s.ExternalID,
		Date:            s.Date,
		ProductID:       s.ProductID,
		ExpenseTypeID:   s.ExpenseTypeID,
		ExpenseTypeName: s.ExpenseTypeName,
		ProductName:     s.ProductName,
		BrandName:       s.BrandName,
		Amount:          s.Amount,
		Description:     s.Description,
	}
}

// Ensure Adapter implements Source
var _ importsync.Source = (*Adapter)(nil)
