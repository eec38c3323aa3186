package extsource

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ---------------------------------------------------------------------------
// Source-shaped fixture database
// ---------------------------------------------------------------------------

// newSourceDB builds an in-memory database with the external schema's
// misleading names: "brands" are products, "manufacturers" are brands.
func newSourceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, ddl := range []string{
		`CREATE TABLE manufacturers (manufacturer_id INTEGER PRIMARY KEY, manufacturer_name TEXT NOT NULL)`,
		`CREATE TABLE categories (category_id INTEGER PRIMARY KEY, category_name TEXT NOT NULL)`,
		`CREATE TABLE genders (gender_id INTEGER PRIMARY KEY, gender_name TEXT NOT NULL)`,
		`CREATE TABLE brands (
			brand_id INTEGER PRIMARY KEY,
			brand_name TEXT NOT NULL DEFAULT '',
			manufacturer_id INTEGER,
			category_id INTEGER,
			gender_id INTEGER
		)`,
		`CREATE TABLE orders (
			order_id INTEGER PRIMARY KEY,
			order_date DATETIME NOT NULL,
			brand_id INTEGER,
			agent TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			grand_total TEXT NOT NULL DEFAULT '',
			refund_amount TEXT NOT NULL DEFAULT '',
			billing_address TEXT NOT NULL DEFAULT '',
			billing_address2 TEXT NOT NULL DEFAULT '',
			billing_city TEXT NOT NULL DEFAULT '',
			billing_state TEXT NOT NULL DEFAULT '',
			billing_zip TEXT NOT NULL DEFAULT '',
			billing_country TEXT NOT NULL DEFAULT '',
			shipping_address TEXT NOT NULL DEFAULT '',
			shipping_address2 TEXT NOT NULL DEFAULT '',
			shipping_city TEXT NOT NULL DEFAULT '',
			shipping_state TEXT NOT NULL DEFAULT '',
			shipping_zip TEXT NOT NULL DEFAULT '',
			shipping_country TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE order_items (
			order_item_id INTEGER PRIMARY KEY,
			order_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			price TEXT NOT NULL DEFAULT '',
			qty INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE expense_types (expense_type_id INTEGER PRIMARY KEY, type_name TEXT NOT NULL)`,
		`CREATE TABLE expenses (
			expense_id INTEGER PRIMARY KEY,
			expense_date DATETIME NOT NULL,
			brand_id INTEGER,
			expense_type_id INTEGER,
			amount TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func newTestAdapter(t *testing.T, db *gorm.DB, pageSize int) *Adapter {
	t.Helper()
	return NewAdapterWithDB(db, pageSize, time.Minute, nil)
}

func seedLookups(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(`INSERT INTO manufacturers (manufacturer_id, manufacturer_name) VALUES (1, 'Acme')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO categories (category_id, category_name) VALUES (1, 'Shoes')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO genders (gender_id, gender_name) VALUES (1, 'Unisex')`).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO brands (brand_id, brand_name, manufacturer_id, category_id, gender_id) VALUES (101, 'Widget', 1, 1, 1)`).Error)
}

func insertOrder(t *testing.T, db *gorm.DB, id int64, date time.Time, productID int64) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO orders (order_id, order_date, brand_id, agent, email, name, grand_total, refund_amount)
		 VALUES (?, ?, ?, 'web', 'jane@example.com', 'Jane Doe', '100.00', '0')`,
		id, date, productID).Error)
}

func insertItem(t *testing.T, db *gorm.DB, id, orderID, itemID int64, price string, qty int) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO order_items (order_item_id, order_id, item_id, price, qty) VALUES (?, ?, ?, ?, ?)`,
		id, orderID, itemID, price, qty).Error)
}

func insertExpense(t *testing.T, db *gorm.DB, id int64, date time.Time, productID, typeID int64, amount string) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO expenses (expense_id, expense_date, brand_id, expense_type_id, amount, description)
		 VALUES (?, ?, ?, ?, ?, 'campaign')`,
		id, date, productID, typeID, amount).Error)
}

func drainOrders(t *testing.T, iter importsync.OrderIterator) []importsync.OrderRow {
	t.Helper()
	defer iter.Close()
	var rows []importsync.OrderRow
	for {
		row, ok, err := iter.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return rows
		}
		rows = append(rows, *row)
	}
}

func drainExpenses(t *testing.T, iter importsync.ExpenseIterator) []importsync.ExpenseRow {
	t.Helper()
	defer iter.Close()
	var rows []importsync.ExpenseRow
	for {
		row, ok, err := iter.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return rows
		}
		rows = append(rows, *row)
	}
}

func externalIDs(rows []importsync.OrderRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ExternalID
	}
	return ids
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

func TestAdapter_TestConnection(t *testing.T) {
	db := newSourceDB(t)
	assert.True(t, newTestAdapter(t, db, 10).TestConnection(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.False(t, newTestAdapter(t, db, 10).TestConnection(context.Background()))
}

func TestAdapter_GetOrders_AliasesLookupNames(t *testing.T) {
	db := newSourceDB(t)
	seedLookups(t, db)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	insertOrder(t, db, 1, day, 101)
	insertItem(t, db, 11, 1, 501, "25.00", 2)
	insertItem(t, db, 12, 1, 502, "50.00", 1)

	rows, err := newTestAdapter(t, db, 10).GetOrders(context.Background(), day, day, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, int64(1), row.ExternalID)
	assert.Equal(t, int64(101), row.ProductID)
	// The source's "brand" is our product; its "manufacturer" is our brand.
	assert.Equal(t, "Widget", row.ProductName)
	assert.Equal(t, "Acme", row.BrandName)
	assert.Equal(t, "Shoes", row.CategoryName)
	assert.Equal(t, "Unisex", row.GenderName)
	assert.Equal(t, "jane@example.com", row.Email)

	require.Len(t, row.Items, 2)
	assert.Equal(t, int64(501), row.Items[0].ItemID)
	assert.Equal(t, "25.00", row.Items[0].Price)
	assert.Equal(t, 2, row.Items[0].Qty)
}

func TestAdapter_GetOrders_MissingLookupsYieldEmptyNames(t *testing.T) {
	db := newSourceDB(t)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	insertOrder(t, db, 1, day, 999)

	rows, err := newTestAdapter(t, db, 10).GetOrders(context.Background(), day, day, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].ProductName)
	assert.Empty(t, rows[0].BrandName)
	assert.Empty(t, rows[0].Items)
}

func TestAdapter_StreamOrdersIncremental_ResumesStrictlyAfterCursor(t *testing.T) {
	db := newSourceDB(t)
	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	insertOrder(t, db, 1, day1, 101)
	insertOrder(t, db, 2, day1, 101)
	insertOrder(t, db, 3, day1, 101)
	insertOrder(t, db, 4, day2, 101)

	adapter := newTestAdapter(t, db, 2)

	// Same-day rows with higher IDs and all later days come through.
	rows := drainOrders(t, adapter.StreamOrdersIncremental(context.Background(),
		importsync.Cursor{Date: day1, ExternalID: 1}))
	assert.Equal(t, []int64{2, 3, 4}, externalIDs(rows))

	// The cursor row itself is never replayed.
	rows = drainOrders(t, adapter.StreamOrdersIncremental(context.Background(),
		importsync.Cursor{Date: day2, ExternalID: 4}))
	assert.Empty(t, rows)

	// A zero cursor streams everything, paged by the small page size.
	rows = drainOrders(t, adapter.StreamOrdersIncremental(context.Background(), importsync.Cursor{}))
	assert.Equal(t, []int64{1, 2, 3, 4}, externalIDs(rows))
}

func TestAdapter_StreamOrdersByDateRange_HonorsWindow(t *testing.T) {
	db := newSourceDB(t)
	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)
	insertOrder(t, db, 1, day1, 101)
	insertOrder(t, db, 2, day2, 101)
	insertOrder(t, db, 3, day2, 101)
	insertOrder(t, db, 4, day3, 101)

	// Page size 1 forces several keyset pages per day window.
	adapter := newTestAdapter(t, db, 1)

	rows := drainOrders(t, adapter.StreamOrdersByDateRange(context.Background(), day2, day2))
	assert.Equal(t, []int64{2, 3}, externalIDs(rows))

	rows = drainOrders(t, adapter.StreamOrdersByDateRange(context.Background(), day1, day3))
	assert.Equal(t, []int64{1, 2, 3, 4}, externalIDs(rows))
}

func TestAdapter_StreamExpensesIncremental(t *testing.T) {
	db := newSourceDB(t)
	require.NoError(t, db.Exec(`INSERT INTO expense_types (expense_type_id, type_name) VALUES (7, 'marketing')`).Error)
	seedLookups(t, db)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	insertExpense(t, db, 1, day, 101, 7, "42.50")
	insertExpense(t, db, 2, day.AddDate(0, 0, 1), 101, 7, "10.00")

	adapter := newTestAdapter(t, db, 1)
	rows := drainExpenses(t, adapter.StreamExpensesIncremental(context.Background(),
		importsync.Cursor{Date: day, ExternalID: 1}))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ExternalID)
	assert.Equal(t, "marketing", rows[0].ExpenseTypeName)
	assert.Equal(t, "Acme", rows[0].BrandName)
	assert.Equal(t, "10.00", rows[0].Amount)
}

func TestAdapter_GetExpenses_Limit(t *testing.T) {
	db := newSourceDB(t)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	insertExpense(t, db, 1, day, 101, 7, "1.00")
	insertExpense(t, db, 2, day, 101, 7, "2.00")

	rows, err := newTestAdapter(t, db, 10).GetExpenses(context.Background(), day, day, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ExternalID)
}

// ---------------------------------------------------------------------------
// Day windowing
// ---------------------------------------------------------------------------

func TestDayWindows(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	windows := dayWindows(from, from.AddDate(0, 0, 2))
	require.Len(t, windows, 3)
	assert.True(t, windows[0].Start.Equal(from))
	assert.True(t, windows[0].End.Equal(from.AddDate(0, 0, 1)))
	assert.True(t, windows[2].End.Equal(from.AddDate(0, 0, 3)))

	// A single-day range is one window.
	assert.Len(t, dayWindows(from, from), 1)

	// An inverted range has no windows.
	assert.Empty(t, dayWindows(from, from.AddDate(0, 0, -1)))
}
