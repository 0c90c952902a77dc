package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContact(t *testing.T) valueobject.ShippingContact {
	t.Helper()
	c, err := valueobject.NewShippingContact("Mai Tran", "0912345678", "8 Le Loi", "District 1", "Ho Chi Minh City")
	require.NoError(t, err)
	return c
}

func testLine(price int64, qty int) OrderLineInput {
	return OrderLineInput{
		ProductID:    uuid.New(),
		VariantID:    uuid.New(),
		ProductName:  "Oxford Shirt",
		VariantLabel: "M / White",
		UnitPrice:    decimal.NewFromInt(price),
		Quantity:     qty,
	}
}

func newTestOrder(t *testing.T, method PaymentMethod, lines ...OrderLineInput) *Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []OrderLineInput{testLine(100, 2)}
	}
	o, err := NewOrder(GenerateOrderCode(time.Now()), testContact(t), lines, decimal.NewFromInt(30), method, "leave at door")
	require.NoError(t, err)
	return o
}

func testBank(t *testing.T) *valueobject.BankInfo {
	t.Helper()
	b, err := valueobject.NewBankInfo("Techcombank", "19034567890", "MAI TRAN")
	require.NoError(t, err)
	return &b
}

// completedOrder walks an order to COMPLETED through the public API.
func completedOrder(t *testing.T, method PaymentMethod, lines ...OrderLineInput) *Order {
	t.Helper()
	o := newTestOrder(t, method, lines...)
	if method == PaymentMethodOnline {
		require.NoError(t, o.MarkReserved(time.Now().Add(5*time.Minute)))
		require.NoError(t, o.ConfirmPayment())
	}
	require.NoError(t, o.Pack())
	require.NoError(t, o.Ship())
	require.NoError(t, o.Complete())
	o.ClearDomainEvents()
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("COD starts at pending confirmation", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		assert.Equal(t, OrderStatusPendingConfirmation, o.Status())
		assert.Equal(t, PaymentStatusUnpaid, o.PaymentStatus())
		assert.Equal(t, 1, o.GetVersion())
		assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, o.OrderCode)

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*OrderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, EventTypeOrderCreated, created.EventType())
		assert.Equal(t, "Mai Tran", created.CustomerName)
	})

	t.Run("online starts at pending payment", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		assert.Equal(t, OrderStatusPendingPayment, o.Status())
		assert.Equal(t, PaymentStatusUnpaid, o.PaymentStatus())
		assert.False(t, o.State().HoldsStock())
	})

	t.Run("computes totals and spreads shipping", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD, testLine(100, 2), testLine(50, 2))
		assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(300)))
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(330)))
		assert.True(t, o.Items[0].ShippingAllocation.Equal(decimal.NewFromInt(20)))
		assert.True(t, o.Items[1].ShippingAllocation.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 4, o.TotalQuantity())
		assert.Len(t, o.StockLines(), 2)
	})

	tests := []struct {
		name   string
		lines  []OrderLineInput
		fee    decimal.Decimal
		method PaymentMethod
	}{
		{"no items", nil, decimal.Zero, PaymentMethodCOD},
		{"zero quantity", []OrderLineInput{testLine(10, 0)}, decimal.Zero, PaymentMethodCOD},
		{"negative price", []OrderLineInput{testLine(-1, 1)}, decimal.Zero, PaymentMethodCOD},
		{"negative fee", []OrderLineInput{testLine(10, 1)}, decimal.NewFromInt(-1), PaymentMethodCOD},
		{"unknown method", []OrderLineInput{testLine(10, 1)}, decimal.Zero, "BARTER"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := NewOrder("ORD-1", testContact(t), tt.lines, tt.fee, tt.method, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrValidation))
		})
	}

	t.Run("rejects duplicate variant", func(t *testing.T) {
		l := testLine(10, 1)
		_, err := NewOrder("ORD-1", testContact(t), []OrderLineInput{l, l}, decimal.Zero, PaymentMethodCOD, "")
		assert.Error(t, err)
	})
}

func TestOrder_PaymentReservation(t *testing.T) {
	t.Run("reserve then confirm", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		require.NoError(t, o.MarkReserved(time.Now().Add(5*time.Minute)))
		assert.Equal(t, PaymentStatusReserved, o.PaymentStatus())
		assert.True(t, o.State().HoldsStock())

		require.NoError(t, o.ConfirmPayment())
		assert.Equal(t, OrderStatusPendingConfirmation, o.Status())
		assert.Equal(t, PaymentStatusPaid, o.PaymentStatus())
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("cannot reserve twice", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		require.NoError(t, o.MarkReserved(time.Now()))
		err := o.MarkReserved(time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("COD orders never reserve", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		assert.Error(t, o.MarkReserved(time.Now()))
	})

	t.Run("release cancels both axes", func(t *testing.T) {
		for _, outcome := range []inventory.ResolutionOutcome{inventory.OutcomeFailure, inventory.OutcomeCancel, inventory.OutcomeTimeout} {
			o := newTestOrder(t, PaymentMethodOnline)
			require.NoError(t, o.MarkReserved(time.Now()))
			require.NoError(t, o.ReleaseReservation(outcome))
			assert.Equal(t, OrderStatusCancelled, o.Status())
			assert.Equal(t, PaymentStatusCancelled, o.PaymentStatus())
			assert.False(t, o.State().HoldsStock())
		}
	})

	t.Run("release is refused after payment", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		require.NoError(t, o.MarkReserved(time.Now()))
		require.NoError(t, o.ConfirmPayment())
		assert.Error(t, o.ReleaseReservation(inventory.OutcomeTimeout))
		assert.Error(t, o.ReleaseReservation(inventory.OutcomeSuccess))
	})
}

func TestOrder_Fulfillment(t *testing.T) {
	t.Run("COD completion collects payment", func(t *testing.T) {
		o := completedOrder(t, PaymentMethodCOD)
		assert.Equal(t, OrderStatusCompleted, o.Status())
		assert.Equal(t, PaymentStatusPaid, o.PaymentStatus())
		assert.NotNil(t, o.PackedAt)
		assert.NotNil(t, o.ShippedAt)
		assert.NotNil(t, o.CompletedAt)
	})

	t.Run("no skipping", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		err := o.Ship()
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Error(t, o.Complete())
	})

	t.Run("online order cannot pack before payment", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		assert.Error(t, o.Pack())
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("unpaid COD order", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		require.NoError(t, o.Cancel("changed my mind", nil))
		assert.Equal(t, OrderStatusCancelled, o.Status())
		assert.Equal(t, PaymentStatusCancelled, o.PaymentStatus())
		assert.Nil(t, o.RefundBankInfo)
	})

	t.Run("paid order routes through pending refund", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		require.NoError(t, o.MarkReserved(time.Now()))
		require.NoError(t, o.ConfirmPayment())

		err := o.Cancel("wrong size", nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, PaymentStatusPaid, o.PaymentStatus())

		require.NoError(t, o.Cancel("wrong size", testBank(t)))
		assert.Equal(t, OrderStatusCancelled, o.Status())
		assert.Equal(t, PaymentStatusPendingRefund, o.PaymentStatus())
		require.NotNil(t, o.RefundBankInfo)

		events := o.GetDomainEvents()
		cancelled, ok := events[len(events)-1].(*OrderCancelledEvent)
		require.True(t, ok)
		assert.True(t, cancelled.RefundRequired)

		require.NoError(t, o.MarkRefunded())
		assert.Equal(t, PaymentStatusRefunded, o.PaymentStatus())
		assert.Equal(t, OrderStatusCancelled, o.Status())
	})

	t.Run("not after packing", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		require.NoError(t, o.Pack())
		assert.True(t, errors.Is(o.Cancel("late", nil), shared.ErrInvalidState))
	})

	t.Run("reserved order must be resolved instead", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodOnline)
		require.NoError(t, o.MarkReserved(time.Now()))
		assert.Error(t, o.Cancel("abort", nil))
	})

	t.Run("reason required", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		assert.Error(t, o.Cancel(" ", nil))
	})

	t.Run("mark refunded needs a pending refund", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCOD)
		assert.Error(t, o.MarkRefunded())
	})
}

func TestOrder_CheckReturnEligibility(t *testing.T) {
	o := completedOrder(t, PaymentMethodCOD)
	itemID := o.Items[0].ID

	item, err := o.CheckReturnEligibility(itemID, time.Now(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)

	_, err = o.CheckReturnEligibility(uuid.New(), time.Now(), 7*24*time.Hour)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = o.CheckReturnEligibility(itemID, o.CreatedAt.Add(8*24*time.Hour), 7*24*time.Hour)
	assert.ErrorContains(t, err, "return window")

	require.NoError(t, o.SetItemReturnStatus(itemID, ItemReturnHasRequest))
	_, err = o.CheckReturnEligibility(itemID, time.Now(), 7*24*time.Hour)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	pending := newTestOrder(t, PaymentMethodCOD)
	_, err = pending.CheckReturnEligibility(pending.Items[0].ID, time.Now(), 7*24*time.Hour)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestOrder_SetItemReturnStatus_Isolation(t *testing.T) {
	o := completedOrder(t, PaymentMethodCOD, testLine(100, 1), testLine(200, 1))
	a, b := o.Items[0].ID, o.Items[1].ID

	require.NoError(t, o.SetItemReturnStatus(a, ItemReturnHasRequest))
	require.NoError(t, o.SetItemReturnStatus(a, ItemReturnRejected))
	assert.Equal(t, ItemReturnRejected, o.GetItem(a).ReturnStatus)
	assert.Equal(t, ItemReturnNone, o.GetItem(b).ReturnStatus)

	assert.Error(t, o.SetItemReturnStatus(a, ItemReturnHasRequest), "rejected is terminal")
	assert.Error(t, o.SetItemReturnStatus(b, ItemReturnExchanged), "must have a request first")
}

func TestDeriveReturnPhase(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ReturnRequestStatus
		want     OrderStatus
	}{
		{"no requests", nil, OrderStatusCompleted},
		{"pending", []ReturnRequestStatus{ReturnStatusPending}, OrderStatusReturnRequested},
		{"approved", []ReturnRequestStatus{ReturnStatusApproved}, OrderStatusReturnProcessing},
		{"received", []ReturnRequestStatus{ReturnStatusReceived}, OrderStatusReturnProcessing},
		{"completed", []ReturnRequestStatus{ReturnStatusCompleted}, OrderStatusReturnCompleted},
		{"cancelled only", []ReturnRequestStatus{ReturnStatusCancelled}, OrderStatusCompleted},
		{"rejected only", []ReturnRequestStatus{ReturnStatusRejected}, OrderStatusCompleted},
		{"processing beats pending", []ReturnRequestStatus{ReturnStatusPending, ReturnStatusApproved}, OrderStatusReturnProcessing},
		{"pending beats completed", []ReturnRequestStatus{ReturnStatusCompleted, ReturnStatusPending}, OrderStatusReturnRequested},
		{"completed beats rejected", []ReturnRequestStatus{ReturnStatusRejected, ReturnStatusCompleted}, OrderStatusReturnCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveReturnPhase(tt.statuses))
		})
	}
}

func TestOrder_ApplyReturnPhase(t *testing.T) {
	o := completedOrder(t, PaymentMethodCOD)
	reqs := []ReturnRequest{{OrderID: o.ID, Status: ReturnStatusPending}}

	require.NoError(t, o.ApplyReturnPhase(reqs))
	assert.Equal(t, OrderStatusReturnRequested, o.Status())
	require.Len(t, o.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeOrderReturnPhaseChanged, o.GetDomainEvents()[0].EventType())

	reqs[0].Status = ReturnStatusCancelled
	require.NoError(t, o.ApplyReturnPhase(reqs))
	assert.Equal(t, OrderStatusCompleted, o.Status())

	// unchanged phase records nothing
	o.ClearDomainEvents()
	require.NoError(t, o.ApplyReturnPhase(reqs))
	assert.Empty(t, o.GetDomainEvents())

	open := newTestOrder(t, PaymentMethodCOD)
	assert.Error(t, open.ApplyReturnPhase(reqs))
}

func TestOrder_RequestRefund(t *testing.T) {
	o := completedOrder(t, PaymentMethodCOD)
	require.NoError(t, o.RequestRefund(testBank(t)))
	assert.Equal(t, PaymentStatusPendingRefund, o.PaymentStatus())
	require.NotNil(t, o.RefundBankInfo)

	// already pending is a no-op
	require.NoError(t, o.RequestRefund(nil))

	require.NoError(t, o.MarkRefunded())
	require.NoError(t, o.RequestRefund(nil))
	assert.Equal(t, PaymentStatusPendingRefund, o.PaymentStatus())
}
