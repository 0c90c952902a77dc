package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ItemReturnStatus tracks the return claim of one order item
type ItemReturnStatus string

const (
	ItemReturnNone       ItemReturnStatus = "NONE"
	ItemReturnHasRequest ItemReturnStatus = "HAS_REQUEST"
	ItemReturnExchanged  ItemReturnStatus = "EXCHANGED"
	ItemReturnRefunded   ItemReturnStatus = "REFUNDED"
	ItemReturnRejected   ItemReturnStatus = "REJECTED"
)

// String returns the string representation of ItemReturnStatus
func (s ItemReturnStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the item return status can move to target.
// HAS_REQUEST goes back to NONE when the customer cancels the request.
func (s ItemReturnStatus) CanTransitionTo(target ItemReturnStatus) bool {
	switch s {
	case ItemReturnNone:
		return target == ItemReturnHasRequest
	case ItemReturnHasRequest:
		return target == ItemReturnNone || target == ItemReturnExchanged ||
			target == ItemReturnRefunded || target == ItemReturnRejected
	}
	return false
}

// OrderItem is a snapshot of what was bought. Product data is copied at
// order time and never follows later catalog changes.
type OrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          uuid.UUID
	VariantID          uuid.UUID
	ProductName        string
	VariantLabel       string
	ThumbnailURL       string
	UnitPrice          decimal.Decimal
	Quantity           int
	Amount             decimal.Decimal // UnitPrice * Quantity
	ShippingAllocation decimal.Decimal
	ReturnStatus       ItemReturnStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StockLine returns the item as a ledger line against its variant
func (i *OrderItem) StockLine() inventory.StockLine {
	return inventory.StockLine{VariantID: i.VariantID, Quantity: i.Quantity}
}

// OrderLineInput describes one line of a new order
type OrderLineInput struct {
	ProductID    uuid.UUID
	VariantID    uuid.UUID
	ProductName  string
	VariantLabel string
	ThumbnailURL string
	UnitPrice    decimal.Decimal
	Quantity     int
}

func newOrderItem(orderID uuid.UUID, in OrderLineInput, now time.Time) (OrderItem, error) {
	if in.ProductID == uuid.Nil || in.VariantID == uuid.Nil {
		return OrderItem{}, shared.NewValidationError("Order item must reference a product variant")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return OrderItem{}, shared.NewValidationError("Product name cannot be empty")
	}
	if in.Quantity <= 0 {
		return OrderItem{}, shared.NewValidationError("Quantity of %s must be positive", in.ProductName)
	}
	if in.UnitPrice.IsNegative() {
		return OrderItem{}, shared.NewValidationError("Unit price of %s cannot be negative", in.ProductName)
	}
	return OrderItem{
		ID:                 uuid.New(),
		OrderID:            orderID,
		ProductID:          in.ProductID,
		VariantID:          in.VariantID,
		ProductName:        strings.TrimSpace(in.ProductName),
		VariantLabel:       in.VariantLabel,
		ThumbnailURL:       in.ThumbnailURL,
		UnitPrice:          in.UnitPrice,
		Quantity:           in.Quantity,
		Amount:             in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		ShippingAllocation: decimal.Zero,
		ReturnStatus:       ItemReturnNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Order is the aggregate root of a customer purchase. It carries two
// status axes held together in a single OrderState.
type Order struct {
	shared.BaseAggregateRoot
	OrderCode      string
	Customer       valueobject.ShippingContact
	Items          []OrderItem
	Subtotal       decimal.Decimal
	ShippingFee    decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  PaymentMethod
	Notes          string
	RefundBankInfo *valueobject.BankInfo
	CancelReason   string
	PaidAt         *time.Time
	ConfirmedAt    *time.Time
	PackedAt       *time.Time
	ShippedAt      *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	RefundedAt     *time.Time

	state OrderState
}

// NewOrder creates an order. COD orders start at PENDING_CONFIRMATION,
// online orders at PENDING_PAYMENT; both start UNPAID.
func NewOrder(orderCode string, customer valueobject.ShippingContact, lines []OrderLineInput, shippingFee decimal.Decimal, method PaymentMethod, notes string) (*Order, error) {
	if strings.TrimSpace(orderCode) == "" {
		return nil, shared.NewValidationError("Order code cannot be empty")
	}
	if customer.IsEmpty() {
		return nil, shared.NewValidationError("Customer contact is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Order must contain at least one item")
	}
	if shippingFee.IsNegative() {
		return nil, shared.NewValidationError("Shipping fee cannot be negative")
	}
	if len(notes) > 1000 {
		return nil, shared.NewValidationError("Notes cannot exceed 1000 characters")
	}
	state, err := initialState(method)
	if err != nil {
		return nil, err
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderCode:         orderCode,
		Customer:          customer,
		ShippingFee:       shippingFee,
		PaymentMethod:     method,
		Notes:             strings.TrimSpace(notes),
		state:             state,
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	for _, in := range lines {
		if seen[in.VariantID] {
			return nil, shared.NewValidationError("Variant %s appears more than once", in.VariantID)
		}
		seen[in.VariantID] = true
		item, err := newOrderItem(order.ID, in, order.CreatedAt)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	order.recalculateTotals()

	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// GenerateOrderCode returns a human-readable code like ORD-20260102-3FA9C1
func GenerateOrderCode(now time.Time) string {
	return generateCode("ORD", now)
}

func generateCode(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

// State returns the combined order state
func (o *Order) State() OrderState { return o.state }

// Status returns the fulfillment status
func (o *Order) Status() OrderStatus { return o.state.Status() }

// PaymentStatus returns the payment status
func (o *Order) PaymentStatus() PaymentStatus { return o.state.Payment() }

// LoadState sets the state of an order rebuilt from storage
func (o *Order) LoadState(s OrderState) { o.state = s }

func (o *Order) moveTo(status OrderStatus, payment PaymentStatus, action string) (OrderState, error) {
	next, err := o.state.To(status, payment)
	if err != nil {
		return o.state, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot %s order %s in %s status", action, o.OrderCode, o.state))
	}
	prev := o.state
	o.state = next
	o.Touch(time.Now())
	return prev, nil
}

// MarkReserved records that stock is held for online payment
func (o *Order) MarkReserved(expireAt time.Time) error {
	if o.PaymentMethod != PaymentMethodOnline {
		return shared.NewDomainError(shared.CodeInvalidState, "Only online orders enter payment reservation")
	}
	if o.Status() != OrderStatusPendingPayment || o.PaymentStatus() != PaymentStatusUnpaid {
		return shared.NewInvalidTransitionError("reserve payment for", "order", o.state)
	}
	if _, err := o.moveTo(OrderStatusPendingPayment, PaymentStatusReserved, "reserve payment for"); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderPaymentReservedEvent(o, expireAt))
	return nil
}

// ConfirmPayment marks a reserved order paid and ready for staff confirmation
func (o *Order) ConfirmPayment() error {
	if o.PaymentStatus() != PaymentStatusReserved {
		return shared.NewInvalidTransitionError("confirm payment for", "order", o.state)
	}
	if _, err := o.moveTo(OrderStatusPendingConfirmation, PaymentStatusPaid, "confirm payment for"); err != nil {
		return err
	}
	now := o.UpdatedAt
	o.PaidAt = &now
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// ReleaseReservation cancels an online order whose payment failed, was
// aborted or timed out.
func (o *Order) ReleaseReservation(outcome inventory.ResolutionOutcome) error {
	if !outcome.ReleasesStock() {
		return shared.NewValidationError("Outcome %s does not release a reservation", outcome)
	}
	if o.Status() != OrderStatusPendingPayment {
		return shared.NewInvalidTransitionError("release payment reservation of", "order", o.state)
	}
	prev, err := o.moveTo(OrderStatusCancelled, PaymentStatusCancelled, "release payment reservation of")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.CancelledAt = &now
	o.CancelReason = "payment " + strings.ToLower(outcome.String())
	o.AddDomainEvent(NewOrderCancelledEvent(o, prev, outcome.String()))
	return nil
}

// Pack moves a confirmed order to packing
func (o *Order) Pack() error {
	prev, err := o.moveTo(OrderStatusPacking, o.PaymentStatus(), "pack")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.ConfirmedAt = &now
	o.PackedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderPacked, prev))
	return nil
}

// Ship moves a packed order to shipping
func (o *Order) Ship() error {
	prev, err := o.moveTo(OrderStatusShipping, o.PaymentStatus(), "ship")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.ShippedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderShipped, prev))
	return nil
}

// Complete marks the order delivered. Cash on delivery is collected here.
func (o *Order) Complete() error {
	payment := o.PaymentStatus()
	if o.PaymentMethod == PaymentMethodCOD && payment == PaymentStatusUnpaid {
		payment = PaymentStatusPaid
	}
	prev, err := o.moveTo(OrderStatusCompleted, payment, "complete")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.CompletedAt = &now
	if prev.Payment() != payment {
		o.PaidAt = &now
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderCompleted, prev))
	return nil
}

// Cancel cancels an order that has not started packing. A paid order needs
// the customer's bank info and moves to PENDING_REFUND; refunding it is a
// later staff action. Orders holding a payment reservation are released
// through the reservation instead.
func (o *Order) Cancel(reason string, bankInfo *valueobject.BankInfo) error {
	if !o.Status().IsCancellable() {
		return shared.NewInvalidTransitionError("cancel", "order", o.state)
	}
	if o.PaymentStatus() == PaymentStatusReserved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Order %s has an active payment reservation; resolve it instead", o.OrderCode))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}

	payment := PaymentStatusCancelled
	if o.PaymentStatus() == PaymentStatusPaid {
		if bankInfo == nil {
			return shared.NewValidationError("Bank info is required to refund a paid order")
		}
		if err := bankInfo.Validate(); err != nil {
			return shared.NewValidationError("Invalid bank info: %s", err.Error())
		}
		payment = PaymentStatusPendingRefund
	}

	prev, err := o.moveTo(OrderStatusCancelled, payment, "cancel")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.CancelledAt = &now
	o.CancelReason = reason
	if payment == PaymentStatusPendingRefund {
		info := *bankInfo
		o.RefundBankInfo = &info
	}
	o.AddDomainEvent(NewOrderCancelledEvent(o, prev, reason))
	return nil
}

// RequestRefund marks that money is owed back, after a refund return
// completed. Bank info is recorded when the order did not have it yet.
func (o *Order) RequestRefund(bankInfo *valueobject.BankInfo) error {
	if o.PaymentStatus() == PaymentStatusPendingRefund {
		return nil
	}
	prev, err := o.moveTo(o.Status(), PaymentStatusPendingRefund, "request refund for")
	if err != nil {
		return err
	}
	if bankInfo != nil && o.RefundBankInfo == nil {
		info := *bankInfo
		o.RefundBankInfo = &info
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderRefundRequested, prev))
	return nil
}

// MarkRefunded records that staff paid the pending refund
func (o *Order) MarkRefunded() error {
	prev, err := o.moveTo(o.Status(), PaymentStatusRefunded, "mark refunded")
	if err != nil {
		return err
	}
	now := o.UpdatedAt
	o.RefundedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderRefunded, prev))
	return nil
}

// ApplyReturnPhase recomputes the order's return phase from all of its
// return requests.
func (o *Order) ApplyReturnPhase(requests []ReturnRequest) error {
	if !o.Status().IsPostCompletion() {
		return shared.NewInvalidTransitionError("process returns for", "order", o.state)
	}
	statuses := make([]ReturnRequestStatus, 0, len(requests))
	for _, r := range requests {
		if r.OrderID == o.ID {
			statuses = append(statuses, r.Status)
		}
	}
	phase := DeriveReturnPhase(statuses)
	if phase == o.Status() {
		return nil
	}
	prev, err := o.moveTo(phase, o.PaymentStatus(), "process returns for")
	if err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderReturnPhaseChanged, prev))
	return nil
}

// DeriveReturnPhase maps the statuses of an order's return requests to the
// order-level status. Requests in flight dominate finished ones.
func DeriveReturnPhase(statuses []ReturnRequestStatus) OrderStatus {
	var pending, processing, completed bool
	for _, s := range statuses {
		switch s {
		case ReturnStatusPending:
			pending = true
		case ReturnStatusApproved, ReturnStatusReceived:
			processing = true
		case ReturnStatusCompleted:
			completed = true
		}
	}
	switch {
	case processing:
		return OrderStatusReturnProcessing
	case pending:
		return OrderStatusReturnRequested
	case completed:
		return OrderStatusReturnCompleted
	}
	return OrderStatusCompleted
}

// GetItem returns the item with the given ID, or nil
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// CheckReturnEligibility verifies that an item can get a new return request
func (o *Order) CheckReturnEligibility(itemID uuid.UUID, now time.Time, window time.Duration) (*OrderItem, error) {
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Item %s does not belong to order %s", itemID, o.OrderCode))
	}
	if !o.Status().IsPostCompletion() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Returns are only accepted for completed orders; order %s is %s", o.OrderCode, o.Status()))
	}
	if window > 0 && now.After(o.CreatedAt.Add(window)) {
		return nil, shared.NewValidationError("The return window of %d days for order %s has closed",
			int(window.Hours()/24), o.OrderCode)
	}
	if item.ReturnStatus != ItemReturnNone {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Item %s already has return status %s", item.ProductName, item.ReturnStatus))
	}
	return item, nil
}

// SetItemReturnStatus moves one item's return status, leaving siblings alone
func (o *Order) SetItemReturnStatus(itemID uuid.UUID, status ItemReturnStatus) error {
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Item %s does not belong to order %s", itemID, o.OrderCode))
	}
	if !item.ReturnStatus.CanTransitionTo(status) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Item return status cannot move from %s to %s", item.ReturnStatus, status))
	}
	now := time.Now()
	item.ReturnStatus = status
	item.UpdatedAt = now
	o.Touch(now)
	return nil
}

// StockLines returns one ledger line per item
func (o *Order) StockLines() []inventory.StockLine {
	lines := make([]inventory.StockLine, 0, len(o.Items))
	for i := range o.Items {
		lines = append(lines, o.Items[i].StockLine())
	}
	return lines
}

// ItemCount returns the number of items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the sum of all item quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// recalculateTotals sums item amounts and spreads the shipping fee across
// items in proportion to their amount.
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	amounts := make([]decimal.Decimal, len(o.Items))
	for i, item := range o.Items {
		subtotal = subtotal.Add(item.Amount)
		amounts[i] = item.Amount
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingFee)

	for i, share := range allocateShipping(o.ShippingFee, amounts) {
		o.Items[i].ShippingAllocation = share
	}
}
