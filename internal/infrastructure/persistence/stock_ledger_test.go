package persistence

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockLedger_Deduct_SQL(t *testing.T) {
	t.Run("issues one conditional decrement per line", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		ledger := NewGormStockLedger(db)
		variantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "product_variants" SET "stock_quantity"=stock_quantity - \$1,"updated_at"=\$2 WHERE id = \$3 AND stock_quantity >= \$4 AND status = \$5`).
			WithArgs(2, sqlmock.AnyArg(), variantID, 2, "active").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		report, err := ledger.Deduct(context.Background(), []inventory.StockLine{{VariantID: variantID, Quantity: 2}})
		require.NoError(t, err)
		assert.True(t, report.Succeeded())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected rolls back and reports availability", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		ledger := NewGormStockLedger(db)
		variantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "product_variants" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "id","stock_quantity","status" FROM "product_variants" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "stock_quantity", "status"}).AddRow(variantID, 1, "active"))
		mock.ExpectRollback()

		report, err := ledger.Deduct(context.Background(), []inventory.StockLine{{VariantID: variantID, Quantity: 3}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		require.Len(t, report.Failed, 1)
		assert.Equal(t, 1, report.Failed[0].Available)
		assert.Equal(t, 3, report.Failed[0].Requested)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty input before touching the database", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		_, err := NewGormStockLedger(db).Deduct(context.Background(), nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockLedger_Behavior(t *testing.T) {
	ctx := context.Background()

	t.Run("deducts and restores", func(t *testing.T) {
		db := setupSQLiteDB(t)
		ledger := NewGormStockLedger(db)
		_, v := seedVariant(t, db, "LS-M", "M", 5)

		report, err := ledger.Deduct(ctx, []inventory.StockLine{{VariantID: v.ID, Quantity: 2}})
		require.NoError(t, err)
		assert.True(t, report.Succeeded())
		assert.Equal(t, 3, stockOf(t, db, v.ID))

		require.NoError(t, ledger.Restore(ctx, []inventory.StockLine{{VariantID: v.ID, Quantity: 2}}))
		assert.Equal(t, 5, stockOf(t, db, v.ID))
	})

	t.Run("all or nothing across lines", func(t *testing.T) {
		db := setupSQLiteDB(t)
		ledger := NewGormStockLedger(db)
		_, a := seedVariant(t, db, "LS-A", "M", 5)
		_, b := seedVariant(t, db, "LS-B", "L", 1)
		_, c := seedVariant(t, db, "LS-C", "S", 0)

		report, err := ledger.Deduct(ctx, []inventory.StockLine{
			{VariantID: a.ID, Quantity: 2},
			{VariantID: b.ID, Quantity: 2},
			{VariantID: c.ID, Quantity: 1},
		})
		var unavailable *inventory.StockUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Len(t, unavailable.Failed, 2)
		assert.Len(t, report.Failed, 2)

		assert.Equal(t, 5, stockOf(t, db, a.ID))
		assert.Equal(t, 1, stockOf(t, db, b.ID))
		assert.Equal(t, 0, stockOf(t, db, c.ID))
	})

	t.Run("duplicate lines are merged before the check", func(t *testing.T) {
		db := setupSQLiteDB(t)
		ledger := NewGormStockLedger(db)
		_, v := seedVariant(t, db, "LS-D", "M", 3)

		_, err := ledger.Deduct(ctx, []inventory.StockLine{
			{VariantID: v.ID, Quantity: 2},
			{VariantID: v.ID, Quantity: 2},
		})
		assert.Error(t, err)
		assert.Equal(t, 3, stockOf(t, db, v.ID))
	})

	t.Run("archived variants cannot be deducted", func(t *testing.T) {
		db := setupSQLiteDB(t)
		ledger := NewGormStockLedger(db)
		_, v := seedVariant(t, db, "LS-E", "M", 3)
		v.Archive()
		require.NoError(t, NewGormVariantRepository(db).Save(ctx, v))

		report, err := ledger.Deduct(ctx, []inventory.StockLine{{VariantID: v.ID, Quantity: 1}})
		assert.Error(t, err)
		assert.Equal(t, 0, report.Failed[0].Available)
	})

	t.Run("check availability does not mutate", func(t *testing.T) {
		db := setupSQLiteDB(t)
		ledger := NewGormStockLedger(db)
		_, v := seedVariant(t, db, "LS-F", "M", 2)
		missing := uuid.New()

		result, err := ledger.CheckAvailability(ctx, []inventory.StockLine{
			{VariantID: v.ID, Quantity: 2},
			{VariantID: missing, Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, result, 2)
		byID := map[uuid.UUID]inventory.LineAvailability{}
		for _, r := range result {
			byID[r.VariantID] = r
		}
		assert.True(t, byID[v.ID].IsAvailable)
		assert.False(t, byID[missing].IsAvailable)
		assert.Equal(t, 2, stockOf(t, db, v.ID))
	})

	t.Run("check availability rejects overflowing duplicates", func(t *testing.T) {
		db := setupSQLiteDB(t)
		_, v := seedVariant(t, db, "LS-G", "M", 2)

		result, err := NewGormStockLedger(db).CheckAvailability(ctx, []inventory.StockLine{
			{VariantID: v.ID, Quantity: math.MaxInt},
			{VariantID: v.ID, Quantity: math.MaxInt},
		})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Nil(t, result)
	})

	t.Run("restore of an unknown variant is not found", func(t *testing.T) {
		db := setupSQLiteDB(t)
		err := NewGormStockLedger(db).Restore(ctx, []inventory.StockLine{{VariantID: uuid.New(), Quantity: 1}})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormStockLedger_NoOversell(t *testing.T) {
	db := setupSQLiteDB(t)
	ledger := NewGormStockLedger(db)
	_, v := seedVariant(t, db, "LS-HOT", "M", 5)

	const buyers = 20
	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Deduct(context.Background(), []inventory.StockLine{{VariantID: v.ID, Quantity: 1}})
			if err == nil {
				succeeded.Add(1)
			} else if errors.Is(err, shared.ErrInsufficientStock) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, int32(buyers-5), rejected.Load())
	assert.Equal(t, 0, stockOf(t, db, v.ID))
}
