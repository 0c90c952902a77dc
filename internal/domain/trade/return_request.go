package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ReturnType is what the customer wants back for a returned item
type ReturnType string

const (
	ReturnTypeExchange ReturnType = "EXCHANGE"
	ReturnTypeRefund   ReturnType = "REFUND"
)

// IsValid checks if the type is a valid ReturnType
func (t ReturnType) IsValid() bool {
	return t == ReturnTypeExchange || t == ReturnTypeRefund
}

// ReturnRequestStatus represents the status of a return request
type ReturnRequestStatus string

const (
	ReturnStatusPending   ReturnRequestStatus = "PENDING"
	ReturnStatusApproved  ReturnRequestStatus = "APPROVED"
	ReturnStatusRejected  ReturnRequestStatus = "REJECTED"
	ReturnStatusReceived  ReturnRequestStatus = "RECEIVED"
	ReturnStatusCompleted ReturnRequestStatus = "COMPLETED"
	ReturnStatusCancelled ReturnRequestStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReturnRequestStatus
func (s ReturnRequestStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusReceived, ReturnStatusCompleted, ReturnStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReturnRequestStatus
func (s ReturnRequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnRequestStatus) CanTransitionTo(target ReturnRequestStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusRejected || target == ReturnStatusCancelled
	case ReturnStatusApproved:
		return target == ReturnStatusReceived
	case ReturnStatusReceived:
		return target == ReturnStatusCompleted
	}
	return false
}

// IsTerminal returns true for REJECTED, COMPLETED and CANCELLED
func (s ReturnRequestStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusCompleted || s == ReturnStatusCancelled
}

// ExchangeTarget is the size/color the customer wants instead
type ExchangeTarget struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// IsZero reports whether no option was requested
func (t ExchangeTarget) IsZero() bool {
	return strings.TrimSpace(t.Size) == "" && strings.TrimSpace(t.Color) == ""
}

// ReturnSubmission is the customer's input for a new request
type ReturnSubmission struct {
	Type           ReturnType
	Reason         string
	EvidenceImages []string
	BankInfo       *valueobject.BankInfo
	ExchangeTarget *ExchangeTarget
	// TargetVariantID is the resolved variant for the exchange target;
	// nil means the original variant.
	TargetVariantID *uuid.UUID
}

// ReturnRequest is a return or exchange claim on exactly one order item
type ReturnRequest struct {
	shared.BaseAggregateRoot
	RequestCode      string
	OrderID          uuid.UUID
	OrderCode        string
	OrderItemID      uuid.UUID
	ProductID        uuid.UUID
	VariantID        uuid.UUID
	Quantity         int
	Type             ReturnType
	Reason           string
	EvidenceImages   []string
	BankInfo         *valueobject.BankInfo
	ExchangeTarget   *ExchangeTarget
	TargetVariantID  *uuid.UUID
	Status           ReturnRequestStatus
	StaffNotes       string
	ExchangeOrderRef string
	RefundMarked     bool
	DecidedAt        *time.Time
	ReceivedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

const maxEvidenceImages = 10

// NewReturnRequest creates a PENDING request for an eligible order item.
// The caller checks eligibility with Order.CheckReturnEligibility first.
func NewReturnRequest(order *Order, item *OrderItem, in ReturnSubmission) (*ReturnRequest, error) {
	if order == nil || item == nil || item.OrderID != order.ID {
		return nil, shared.NewValidationError("Return request must reference an item of the order")
	}
	if !in.Type.IsValid() {
		return nil, shared.NewValidationError("Invalid return type: %s", in.Type)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("Reason is required")
	}
	if len(reason) > 2000 {
		return nil, shared.NewValidationError("Reason cannot exceed 2000 characters")
	}
	images := make([]string, 0, len(in.EvidenceImages))
	for _, img := range in.EvidenceImages {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return nil, shared.NewValidationError("At least one evidence image is required")
	}
	if len(images) > maxEvidenceImages {
		return nil, shared.NewValidationError("At most %d evidence images are allowed", maxEvidenceImages)
	}

	needsBank := in.Type == ReturnTypeRefund && order.PaymentMethod == PaymentMethodCOD
	switch {
	case needsBank && in.BankInfo == nil:
		return nil, shared.NewValidationError("Bank info is required to refund a cash-on-delivery order")
	case needsBank:
		if err := in.BankInfo.Validate(); err != nil {
			return nil, shared.NewValidationError("Invalid bank info: %s", err.Error())
		}
	case in.BankInfo != nil:
		return nil, shared.NewValidationError("Bank info is only accepted for refunds of cash-on-delivery orders")
	}

	if in.Type == ReturnTypeRefund && (in.ExchangeTarget != nil || in.TargetVariantID != nil) {
		return nil, shared.NewValidationError("Exchange target is only accepted for exchanges")
	}

	r := &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           order.ID,
		OrderCode:         order.OrderCode,
		OrderItemID:       item.ID,
		ProductID:         item.ProductID,
		VariantID:         item.VariantID,
		Quantity:          item.Quantity,
		Type:              in.Type,
		Reason:            reason,
		EvidenceImages:    images,
		Status:            ReturnStatusPending,
	}
	r.RequestCode = generateCode("RR", r.CreatedAt)
	if needsBank {
		info := *in.BankInfo
		r.BankInfo = &info
	}
	if in.ExchangeTarget != nil && !in.ExchangeTarget.IsZero() {
		target := *in.ExchangeTarget
		r.ExchangeTarget = &target
	}
	if in.TargetVariantID != nil && *in.TargetVariantID != item.VariantID {
		id := *in.TargetVariantID
		r.TargetVariantID = &id
	}

	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnRequested, r))
	return r, nil
}

func (r *ReturnRequest) transition(target ReturnRequestStatus, action string) (time.Time, error) {
	if !r.Status.CanTransitionTo(target) {
		return time.Time{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot %s return request %s in %s status", action, r.RequestCode, r.Status))
	}
	now := time.Now()
	r.Status = target
	r.Touch(now)
	return now, nil
}

// Approve accepts a pending request
func (r *ReturnRequest) Approve(notes string) error {
	now, err := r.transition(ReturnStatusApproved, "approve")
	if err != nil {
		return err
	}
	r.StaffNotes = strings.TrimSpace(notes)
	r.DecidedAt = &now
	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnApproved, r))
	return nil
}

// Reject refuses a pending request; a reason for the customer is required
func (r *ReturnRequest) Reject(notes string) error {
	if strings.TrimSpace(notes) == "" {
		return shared.NewValidationError("A note explaining the rejection is required")
	}
	now, err := r.transition(ReturnStatusRejected, "reject")
	if err != nil {
		return err
	}
	r.StaffNotes = strings.TrimSpace(notes)
	r.DecidedAt = &now
	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnRejected, r))
	return nil
}

// ConfirmReceived records that the returned item arrived at the warehouse
func (r *ReturnRequest) ConfirmReceived() error {
	now, err := r.transition(ReturnStatusReceived, "confirm receipt of")
	if err != nil {
		return err
	}
	r.ReceivedAt = &now
	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnReceived, r))
	return nil
}

// Complete finishes the request. Refunds only set the financial marker;
// exchanges record the replacement order reference if there is one.
func (r *ReturnRequest) Complete(exchangeOrderRef string) error {
	now, err := r.transition(ReturnStatusCompleted, "complete")
	if err != nil {
		return err
	}
	r.CompletedAt = &now
	if r.Type == ReturnTypeRefund {
		r.RefundMarked = true
	} else {
		r.ExchangeOrderRef = strings.TrimSpace(exchangeOrderRef)
	}
	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnCompleted, r))
	return nil
}

// Cancel withdraws a request that staff have not decided yet
func (r *ReturnRequest) Cancel() error {
	now, err := r.transition(ReturnStatusCancelled, "cancel")
	if err != nil {
		return err
	}
	r.CancelledAt = &now
	r.AddDomainEvent(NewReturnRequestEvent(EventTypeReturnCancelled, r))
	return nil
}

// ReturnedStock is the inbound line for the original variant
func (r *ReturnRequest) ReturnedStock() inventory.StockLine {
	return inventory.StockLine{VariantID: r.VariantID, Quantity: r.Quantity}
}

// ReplacementStock is the outbound line for an exchange: the target
// variant, or the original one when no other option was requested
func (r *ReturnRequest) ReplacementStock() inventory.StockLine {
	variantID := r.VariantID
	if r.TargetVariantID != nil {
		variantID = *r.TargetVariantID
	}
	return inventory.StockLine{VariantID: variantID, Quantity: r.Quantity}
}

// ItemOutcome is the item return status a completed request leads to
func (r *ReturnRequest) ItemOutcome() ItemReturnStatus {
	if r.Type == ReturnTypeExchange {
		return ItemReturnExchanged
	}
	return ItemReturnRefunded
}

// IsActive returns true while the request is still in flight
func (r *ReturnRequest) IsActive() bool {
	return !r.Status.IsTerminal()
}
