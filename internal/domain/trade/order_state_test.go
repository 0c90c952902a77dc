package trade

import (
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	OrderStatusPendingPayment, OrderStatusPendingConfirmation, OrderStatusPacking,
	OrderStatusShipping, OrderStatusCompleted, OrderStatusCancelled,
	OrderStatusReturnRequested, OrderStatusReturnProcessing, OrderStatusReturnCompleted,
}

var allPayments = []PaymentStatus{
	PaymentStatusUnpaid, PaymentStatusReserved, PaymentStatusPaid,
	PaymentStatusPendingRefund, PaymentStatusRefunded, PaymentStatusCancelled,
}

func TestNewOrderState_PaidAndCancelledNeverCoexist(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodCOD, PaymentMethodOnline} {
		_, err := NewOrderState(m, OrderStatusCancelled, PaymentStatusPaid)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	}
}

func TestNewOrderState_Table(t *testing.T) {
	legal := map[PaymentMethod]map[OrderStatus][]PaymentStatus{
		PaymentMethodOnline: {
			OrderStatusPendingPayment:      {PaymentStatusUnpaid, PaymentStatusReserved},
			OrderStatusPendingConfirmation: {PaymentStatusPaid},
			OrderStatusPacking:             {PaymentStatusPaid},
			OrderStatusShipping:            {PaymentStatusPaid},
			OrderStatusCompleted:           {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnRequested:     {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnProcessing:    {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnCompleted:     {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusCancelled:           {PaymentStatusCancelled, PaymentStatusPendingRefund, PaymentStatusRefunded},
		},
		PaymentMethodCOD: {
			OrderStatusPendingConfirmation: {PaymentStatusUnpaid},
			OrderStatusPacking:             {PaymentStatusUnpaid},
			OrderStatusShipping:            {PaymentStatusUnpaid},
			OrderStatusCompleted:           {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnRequested:     {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnProcessing:    {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusReturnCompleted:     {PaymentStatusPaid, PaymentStatusPendingRefund, PaymentStatusRefunded},
			OrderStatusCancelled:           {PaymentStatusCancelled, PaymentStatusPendingRefund, PaymentStatusRefunded},
		},
	}

	for method, byStatus := range legal {
		for _, st := range allStatuses {
			for _, pay := range allPayments {
				want := false
				for _, p := range byStatus[st] {
					if p == pay {
						want = true
					}
				}
				_, err := NewOrderState(method, st, pay)
				assert.Equal(t, want, err == nil, "%s %s/%s", method, st, pay)
			}
		}
	}
}

func TestNewOrderState_RejectsUnknownValues(t *testing.T) {
	_, err := NewOrderState("CARD", OrderStatusCompleted, PaymentStatusPaid)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewOrderState(PaymentMethodCOD, "LOST", PaymentStatusPaid)
	assert.Error(t, err)
	_, err = NewOrderState(PaymentMethodCOD, OrderStatusCompleted, "HALF")
	assert.Error(t, err)
	assert.True(t, OrderState{}.IsZero())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPendingPayment, OrderStatusPendingConfirmation, true},
		{OrderStatusPendingPayment, OrderStatusCancelled, true},
		{OrderStatusPendingConfirmation, OrderStatusPacking, true},
		{OrderStatusPendingConfirmation, OrderStatusShipping, false},
		{OrderStatusPacking, OrderStatusCancelled, false},
		{OrderStatusShipping, OrderStatusCancelled, false},
		{OrderStatusShipping, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusReturnRequested, true},
		{OrderStatusReturnRequested, OrderStatusCompleted, true},
		{OrderStatusReturnCompleted, OrderStatusReturnRequested, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPendingConfirmation, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderState_To(t *testing.T) {
	s, err := NewOrderState(PaymentMethodOnline, OrderStatusPendingPayment, PaymentStatusReserved)
	require.NoError(t, err)
	assert.True(t, s.HoldsStock())

	paid, err := s.To(OrderStatusPendingConfirmation, PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, "PENDING_CONFIRMATION/PAID", paid.String())

	_, err = paid.To(OrderStatusCancelled, PaymentStatusPaid)
	assert.Error(t, err)

	_, err = paid.To(OrderStatusShipping, PaymentStatusPaid)
	assert.Error(t, err, "skipping PACKING is not allowed")

	unpaid, _ := NewOrderState(PaymentMethodOnline, OrderStatusPendingPayment, PaymentStatusUnpaid)
	assert.False(t, unpaid.HoldsStock())
}
