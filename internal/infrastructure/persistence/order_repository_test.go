package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderRepository_RoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	_, v := seedVariant(t, db, "OR-M", "M", 5)

	order := newPersistedOrder(t, db, trade.PaymentMethodCOD, v, 2)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderCode, found.OrderCode)
	assert.Equal(t, trade.OrderStatusPendingConfirmation, found.Status())
	assert.Equal(t, trade.PaymentStatusUnpaid, found.PaymentStatus())
	assert.Equal(t, "mai@example.com", found.Customer.Email())
	assert.True(t, order.TotalAmount.Equal(found.TotalAmount))
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.Equal(t, trade.ItemReturnNone, found.Items[0].ReturnStatus)
	assert.Empty(t, found.GetDomainEvents())

	byCode, err := repo.FindByCode(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCode.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("persists state, items and bank info", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewGormOrderRepository(db)
		_, v := seedVariant(t, db, "OR-L", "L", 5)
		order := newPersistedOrder(t, db, trade.PaymentMethodOnline, v, 1)

		require.NoError(t, order.MarkReserved(time.Now().Add(5*time.Minute)))
		require.NoError(t, order.ConfirmPayment())
		bank, err := valueobject.NewBankInfo("Vietcombank", "0071000123456", "MAI TRAN")
		require.NoError(t, err)
		require.NoError(t, order.Cancel("changed my mind", &bank))
		require.NoError(t, repo.SaveWithLock(ctx, order))
		assert.Equal(t, 2, order.Version)

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.OrderStatusCancelled, found.Status())
		assert.Equal(t, trade.PaymentStatusPendingRefund, found.PaymentStatus())
		require.NotNil(t, found.RefundBankInfo)
		assert.Equal(t, "0071000123456", found.RefundBankInfo.AccountNumber)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("stale version is a retryable conflict", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewGormOrderRepository(db)
		_, v := seedVariant(t, db, "OR-S", "S", 5)
		order := newPersistedOrder(t, db, trade.PaymentMethodCOD, v, 1)

		first, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)

		require.NoError(t, first.Pack())
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.Cancel("duplicate", nil))
		err = repo.SaveWithLock(ctx, second)
		assert.True(t, shared.IsRetryable(err))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.OrderStatusPacking, found.Status())
	})

	t.Run("writes the version predicate", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db)
		v, err := catalog.NewProductVariant(uuid.New(), "OR-X", "M", "Black", 1, decimal.Zero)
		require.NoError(t, err)
		order := newTestOrder(t, trade.PaymentMethodCOD, v, 1)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithLock(ctx, order)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 1, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_FindAll(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	_, v := seedVariant(t, db, "OR-F", "M", 50)

	for i := 0; i < 3; i++ {
		newPersistedOrder(t, db, trade.PaymentMethodCOD, v, 1)
	}
	newPersistedOrder(t, db, trade.PaymentMethodOnline, v, 1)

	orders, total, err := repo.FindAll(ctx, trade.OrderFilter{PaymentMethod: trade.PaymentMethodCOD})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 3)
	assert.Len(t, orders[0].Items, 1)

	page, total, err := repo.FindAll(ctx, trade.OrderFilter{
		Filter: shared.Filter{Page: 2, PageSize: 3, OrderBy: "created_at; DROP TABLE orders", OrderDir: "asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 1)

	pending, _, err := repo.FindAll(ctx, trade.OrderFilter{Status: trade.OrderStatusPendingPayment})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
