package trade

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeReturnRequest = "ReturnRequest"

// Event type constants
const (
	EventTypeReturnRequested = "ReturnRequested"
	EventTypeReturnApproved  = "ReturnApproved"
	EventTypeReturnRejected  = "ReturnRejected"
	EventTypeReturnReceived  = "ReturnReceived"
	EventTypeReturnCompleted = "ReturnCompleted"
	EventTypeReturnCancelled = "ReturnCancelled"
)

// ReturnRequestEvent is raised on every return request transition
type ReturnRequestEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID           `json:"request_id"`
	RequestCode string              `json:"request_code"`
	OrderID     uuid.UUID           `json:"order_id"`
	OrderCode   string              `json:"order_code"`
	OrderItemID uuid.UUID           `json:"order_item_id"`
	ReturnType  ReturnType          `json:"return_type"`
	Status      ReturnRequestStatus `json:"status"`
	StaffNotes  string              `json:"staff_notes,omitempty"`
}

// NewReturnRequestEvent creates an event of the given type for r
func NewReturnRequestEvent(eventType string, r *ReturnRequest) *ReturnRequestEvent {
	return &ReturnRequestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeReturnRequest, r.ID),
		RequestID:       r.ID,
		RequestCode:     r.RequestCode,
		OrderID:         r.OrderID,
		OrderCode:       r.OrderCode,
		OrderItemID:     r.OrderItemID,
		ReturnType:      r.Type,
		Status:          r.Status,
		StaffNotes:      r.StaffNotes,
	}
}
