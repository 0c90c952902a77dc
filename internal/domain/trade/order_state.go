package trade

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// OrderStatus is the fulfillment axis of an order
type OrderStatus string

const (
	OrderStatusPendingPayment      OrderStatus = "PENDING_PAYMENT"
	OrderStatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	OrderStatusPacking             OrderStatus = "PACKING"
	OrderStatusShipping            OrderStatus = "SHIPPING"
	OrderStatusCompleted           OrderStatus = "COMPLETED"
	OrderStatusCancelled           OrderStatus = "CANCELLED"
	OrderStatusReturnRequested     OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnProcessing    OrderStatus = "RETURN_PROCESSING"
	OrderStatusReturnCompleted     OrderStatus = "RETURN_COMPLETED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPendingConfirmation, OrderStatusPacking,
		OrderStatusShipping, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusReturnRequested, OrderStatusReturnProcessing, OrderStatusReturnCompleted:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsPostCompletion returns true for COMPLETED and the return phases derived from it
func (s OrderStatus) IsPostCompletion() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusReturnRequested, OrderStatusReturnProcessing, OrderStatusReturnCompleted:
		return true
	}
	return false
}

// IsCancellable returns true while the order has not entered packing
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPendingPayment || s == OrderStatusPendingConfirmation
}

// CanTransitionTo checks if the status can transition to the target status.
// The return phases are recomputed from return requests, so they may move
// freely among themselves and back to COMPLETED.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPendingPayment:
		return target == OrderStatusPendingConfirmation || target == OrderStatusCancelled
	case OrderStatusPendingConfirmation:
		return target == OrderStatusPacking || target == OrderStatusCancelled
	case OrderStatusPacking:
		return target == OrderStatusShipping
	case OrderStatusShipping:
		return target == OrderStatusCompleted
	case OrderStatusCompleted, OrderStatusReturnRequested, OrderStatusReturnProcessing, OrderStatusReturnCompleted:
		return target != s && target.IsPostCompletion()
	case OrderStatusCancelled:
		return false
	}
	return false
}

// PaymentStatus is the money-collection axis of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusReserved      PaymentStatus = "RESERVED"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusPendingRefund PaymentStatus = "PENDING_REFUND"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
	PaymentStatusCancelled     PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusReserved, PaymentStatusPaid,
		PaymentStatusPendingRefund, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the payment status can transition to target.
// REFUNDED may reopen to PENDING_REFUND when another item of the order is
// refunded later.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusUnpaid:
		return target == PaymentStatusReserved || target == PaymentStatusPaid || target == PaymentStatusCancelled
	case PaymentStatusReserved:
		return target == PaymentStatusPaid || target == PaymentStatusCancelled
	case PaymentStatusPaid:
		return target == PaymentStatusPendingRefund
	case PaymentStatusPendingRefund:
		return target == PaymentStatusRefunded
	case PaymentStatusRefunded:
		return target == PaymentStatusPendingRefund
	case PaymentStatusCancelled:
		return false
	}
	return false
}

// OrderState is the combined (fulfillment, payment) state of an order.
// Its fields are unexported and every constructor checks the pair against
// the table of legal combinations, so a value such as PAID+CANCELLED cannot
// exist. The zero value is not a valid state.
type OrderState struct {
	method  PaymentMethod
	status  OrderStatus
	payment PaymentStatus
}

// NewOrderState builds a state, rejecting combinations that must never coexist
func NewOrderState(method PaymentMethod, status OrderStatus, payment PaymentStatus) (OrderState, error) {
	if !method.IsValid() {
		return OrderState{}, shared.NewValidationError("Invalid payment method: %s", method)
	}
	if !status.IsValid() {
		return OrderState{}, shared.NewValidationError("Invalid order status: %s", status)
	}
	if !payment.IsValid() {
		return OrderState{}, shared.NewValidationError("Invalid payment status: %s", payment)
	}
	if !legalCombination(method, status, payment) {
		return OrderState{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Order cannot be %s with payment %s (%s)", status, payment, method))
	}
	return OrderState{method: method, status: status, payment: payment}, nil
}

func legalCombination(method PaymentMethod, status OrderStatus, payment PaymentStatus) bool {
	switch status {
	case OrderStatusPendingPayment:
		return method == PaymentMethodOnline &&
			(payment == PaymentStatusUnpaid || payment == PaymentStatusReserved)
	case OrderStatusPendingConfirmation, OrderStatusPacking, OrderStatusShipping:
		if method == PaymentMethodCOD {
			return payment == PaymentStatusUnpaid
		}
		return payment == PaymentStatusPaid
	case OrderStatusCompleted, OrderStatusReturnRequested, OrderStatusReturnProcessing, OrderStatusReturnCompleted:
		return payment == PaymentStatusPaid || payment == PaymentStatusPendingRefund || payment == PaymentStatusRefunded
	case OrderStatusCancelled:
		return payment == PaymentStatusCancelled || payment == PaymentStatusPendingRefund || payment == PaymentStatusRefunded
	}
	return false
}

// initialState returns where a freshly created order starts
func initialState(method PaymentMethod) (OrderState, error) {
	if method == PaymentMethodCOD {
		return NewOrderState(method, OrderStatusPendingConfirmation, PaymentStatusUnpaid)
	}
	return NewOrderState(method, OrderStatusPendingPayment, PaymentStatusUnpaid)
}

// Method returns the payment method
func (s OrderState) Method() PaymentMethod { return s.method }

// Status returns the fulfillment status
func (s OrderState) Status() OrderStatus { return s.status }

// Payment returns the payment status
func (s OrderState) Payment() PaymentStatus { return s.payment }

// IsZero reports whether the state was never initialised
func (s OrderState) IsZero() bool { return s == OrderState{} }

// String returns "STATUS/PAYMENT"
func (s OrderState) String() string {
	return string(s.status) + "/" + string(s.payment)
}

// To moves to a new (status, payment) pair. Each axis that changes must be
// an allowed transition and the resulting pair must be legal.
func (s OrderState) To(status OrderStatus, payment PaymentStatus) (OrderState, error) {
	if status != s.status && !s.status.CanTransitionTo(status) {
		return s, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Order cannot move from %s to %s", s.status, status))
	}
	if payment != s.payment && !s.payment.CanTransitionTo(payment) {
		return s, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Payment cannot move from %s to %s", s.payment, payment))
	}
	return NewOrderState(s.method, status, payment)
}

// HoldsStock reports whether the order's items are currently deducted from
// stock: from reservation or COD creation until cancellation.
func (s OrderState) HoldsStock() bool {
	switch s.status {
	case OrderStatusPendingPayment:
		return s.payment == PaymentStatusReserved
	case OrderStatusCancelled:
		return false
	}
	return true
}
