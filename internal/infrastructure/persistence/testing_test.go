package persistence

import (
	"fmt"
	"testing"

	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full
// schema. Each test gets its own named database so parallel tests cannot
// see each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache memory database alive
	// for the whole test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.BrandModel{},
		&models.ProductModel{},
		&models.ProductItemModel{},
		&models.CategoryModel{},
		&models.GenderModel{},
		&models.CustomerModel{},
		&models.AddressModel{},
		&models.OrderAddressModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ExpenseTypeModel{},
		&models.ExpenseModel{},
		&models.AccessGrantModel{},
		&models.SyncStateModel{},
	))
	return db
}
