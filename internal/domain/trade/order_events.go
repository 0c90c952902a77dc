package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated            = "OrderCreated"
	EventTypeOrderPaymentReserved    = "OrderPaymentReserved"
	EventTypeOrderPaid               = "OrderPaid"
	EventTypeOrderPacked             = "OrderPacked"
	EventTypeOrderShipped            = "OrderShipped"
	EventTypeOrderCompleted          = "OrderCompleted"
	EventTypeOrderCancelled          = "OrderCancelled"
	EventTypeOrderRefundRequested    = "OrderRefundRequested"
	EventTypeOrderRefunded           = "OrderRefunded"
	EventTypeOrderReturnPhaseChanged = "OrderReturnPhaseChanged"
)

// OrderItemInfo represents item information for events
type OrderItemInfo struct {
	ItemID       uuid.UUID       `json:"item_id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	VariantLabel string          `json:"variant_label"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent is raised when an order is placed
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	OrderCode     string          `json:"order_code"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        OrderStatus     `json:"status"`
	Items         []OrderItemInfo `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	items := make([]OrderItemInfo, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemInfo{
			ItemID:       item.ID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantLabel: item.VariantLabel,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		}
	}
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		CustomerName:    o.Customer.Recipient(),
		CustomerPhone:   o.Customer.Phone(),
		PaymentMethod:   o.PaymentMethod,
		Status:          o.Status(),
		Items:           items,
		TotalAmount:     o.TotalAmount,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderPaymentReservedEvent is raised when stock is held for online payment
type OrderPaymentReservedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	ExpireAt  time.Time `json:"expire_at"`
}

// NewOrderPaymentReservedEvent creates a new OrderPaymentReservedEvent
func NewOrderPaymentReservedEvent(o *Order, expireAt time.Time) *OrderPaymentReservedEvent {
	return &OrderPaymentReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentReserved, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		ExpireAt:        expireAt,
	}
}

// EventType returns the event type name
func (e *OrderPaymentReservedEvent) EventType() string {
	return EventTypeOrderPaymentReserved
}

// OrderPaidEvent is raised when an online payment is confirmed
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderCode   string          `json:"order_code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		TotalAmount:     o.TotalAmount,
	}
}

// EventType returns the event type name
func (e *OrderPaidEvent) EventType() string {
	return EventTypeOrderPaid
}

// OrderCancelledEvent is raised when an order is cancelled, by staff or
// by a released payment reservation
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID     `json:"order_id"`
	OrderCode      string        `json:"order_code"`
	PreviousStatus OrderStatus   `json:"previous_status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Reason         string        `json:"reason"`
	RefundRequired bool          `json:"refund_required"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, prev OrderState, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		PreviousStatus:  prev.Status(),
		PaymentStatus:   o.PaymentStatus(),
		Reason:          reason,
		RefundRequired:  o.PaymentStatus() == PaymentStatusPendingRefund,
	}
}

// EventType returns the event type name
func (e *OrderCancelledEvent) EventType() string {
	return EventTypeOrderCancelled
}

// OrderStatusChangedEvent covers the staff-driven and derived transitions
// (packed, shipped, completed, refund requested, refunded, return phase)
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID     `json:"order_id"`
	OrderCode     string        `json:"order_code"`
	FromStatus    OrderStatus   `json:"from_status"`
	ToStatus      OrderStatus   `json:"to_status"`
	FromPayment   PaymentStatus `json:"from_payment"`
	ToPayment     PaymentStatus `json:"to_payment"`
	CustomerPhone string        `json:"customer_phone"`
}

// NewOrderStatusChangedEvent creates a status change event of the given type
func NewOrderStatusChangedEvent(o *Order, eventType string, prev OrderState) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		FromStatus:      prev.Status(),
		ToStatus:        o.Status(),
		FromPayment:     prev.Payment(),
		ToPayment:       o.PaymentStatus(),
		CustomerPhone:   o.Customer.Phone(),
	}
}
