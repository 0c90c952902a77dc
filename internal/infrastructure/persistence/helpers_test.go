package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockGormDB opens GORM on a sqlmock connection with the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

// setupSQLiteDB opens a migrated in-memory database. A single connection
// keeps the in-memory schema alive and serializes writers.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// seedVariant stores an active product with one variant holding stock units
func seedVariant(t *testing.T, db *gorm.DB, sku, size string, stock int) (*catalog.Product, *catalog.ProductVariant) {
	t.Helper()
	ctx := context.Background()
	p, err := catalog.NewProduct("Linen Shirt "+sku, decimal.NewFromInt(350))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(ctx, p))

	v, err := catalog.NewProductVariant(p.ID, sku, size, "White", stock, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, NewGormVariantRepository(db).Save(ctx, v))
	return p, v
}

func stockOf(t *testing.T, db *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	v, err := NewGormVariantRepository(db).FindByID(context.Background(), variantID)
	require.NoError(t, err)
	return v.StockQuantity
}

func newPersistedOrder(t *testing.T, db *gorm.DB, method trade.PaymentMethod, variant *catalog.ProductVariant, qty int) *trade.Order {
	t.Helper()
	order := newTestOrder(t, method, variant, qty)
	require.NoError(t, NewGormOrderRepository(db).Create(context.Background(), order))
	return order
}

// newTestOrder builds an order for one variant without storing it
func newTestOrder(t *testing.T, method trade.PaymentMethod, variant *catalog.ProductVariant, qty int) *trade.Order {
	t.Helper()
	contact, err := valueobject.NewShippingContact("Mai Tran", "0912345678", "8 Le Loi", "District 1", "Ho Chi Minh City",
		valueobject.WithEmail("mai@example.com"))
	require.NoError(t, err)

	order, err := trade.NewOrder(trade.GenerateOrderCode(time.Now()), contact, []trade.OrderLineInput{{
		ProductID:    variant.ProductID,
		VariantID:    variant.ID,
		ProductName:  "Linen Shirt",
		VariantLabel: variant.Label(),
		UnitPrice:    decimal.NewFromInt(350),
		Quantity:     qty,
	}}, decimal.NewFromInt(30), method, "")
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}
