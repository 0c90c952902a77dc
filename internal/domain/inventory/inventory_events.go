package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockReservation = "StockReservation"

// Event type constants
const (
	EventTypeReservationExpired = "ReservationExpired"
	EventTypeStockShortfall     = "StockShortfall"
)

// ReservationExpiredEvent is raised by the expiry sweep for each hold it
// released on behalf of an absent customer
type ReservationExpiredEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID   `json:"reservation_id"`
	OrderID       uuid.UUID   `json:"order_id"`
	OrderCode     string      `json:"order_code"`
	Lines         []StockLine `json:"lines"`
	ExpiredAt     time.Time   `json:"expired_at"`
}

// NewReservationExpiredEvent creates a new ReservationExpiredEvent
func NewReservationExpiredEvent(r *StockReservation) *ReservationExpiredEvent {
	return &ReservationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationExpired, AggregateTypeStockReservation, r.ID),
		ReservationID:   r.ID,
		OrderID:         r.OrderID,
		OrderCode:       r.OrderCode,
		Lines:           r.Lines,
		ExpiredAt:       r.ExpireAt,
	}
}

// EventType returns the event type name
func (e *ReservationExpiredEvent) EventType() string {
	return EventTypeReservationExpired
}

// StockShortfallEvent is raised when a deduction was refused for lack of stock
type StockShortfallEvent struct {
	shared.BaseDomainEvent
	SourceType SourceType      `json:"source_type"`
	SourceID   uuid.UUID       `json:"source_id"`
	Failed     []LineShortfall `json:"failed"`
}

// NewStockShortfallEvent creates a new StockShortfallEvent
func NewStockShortfallEvent(sourceType SourceType, sourceID uuid.UUID, failed []LineShortfall) *StockShortfallEvent {
	return &StockShortfallEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockShortfall, string(sourceType), sourceID),
		SourceType:      sourceType,
		SourceID:        sourceID,
		Failed:          failed,
	}
}

// EventType returns the event type name
func (e *StockShortfallEvent) EventType() string {
	return EventTypeStockShortfall
}
