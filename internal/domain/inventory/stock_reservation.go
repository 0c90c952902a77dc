package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReservationStatus represents the lifecycle of a payment hold
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// ResolutionOutcome is how a reservation ended
type ResolutionOutcome string

const (
	OutcomeSuccess ResolutionOutcome = "SUCCESS"
	OutcomeFailure ResolutionOutcome = "FAILURE"
	OutcomeCancel  ResolutionOutcome = "CANCEL"
	OutcomeTimeout ResolutionOutcome = "TIMEOUT"
)

// IsValid returns true if the outcome is valid
func (o ResolutionOutcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeCancel, OutcomeTimeout:
		return true
	}
	return false
}

// String returns the string representation of ResolutionOutcome
func (o ResolutionOutcome) String() string {
	return string(o)
}

// ReleasesStock reports whether the outcome gives the held stock back
func (o ResolutionOutcome) ReleasesStock() bool {
	return o != OutcomeSuccess
}

// ParseOutcome parses a case-sensitive outcome name
func ParseOutcome(s string) (ResolutionOutcome, error) {
	o := ResolutionOutcome(s)
	if !o.IsValid() {
		return "", shared.NewValidationError("Invalid payment outcome: %s", s)
	}
	return o, nil
}

// StockReservation is the server-side record of stock held for an online
// order while the customer pays. The stock was already deducted when the
// reservation was created; it resolves exactly once, either confirmed
// (stock stays deducted) or released (stock restored).
type StockReservation struct {
	shared.BaseEntity
	OrderID    uuid.UUID
	OrderCode  string
	Lines      []StockLine
	ExpireAt   time.Time
	Status     ReservationStatus
	Outcome    ResolutionOutcome
	ResolvedAt *time.Time
}

// NewStockReservation creates an active reservation that expires after hold
func NewStockReservation(orderID uuid.UUID, orderCode string, lines []StockLine, hold time.Duration) (*StockReservation, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("Order ID cannot be empty")
	}
	if hold <= 0 {
		return nil, shared.NewValidationError("Reservation hold must be positive")
	}
	normalized, err := NormalizeLines(lines)
	if err != nil {
		return nil, err
	}

	base := shared.NewBaseEntity()
	return &StockReservation{
		BaseEntity: base,
		OrderID:    orderID,
		OrderCode:  orderCode,
		Lines:      normalized,
		ExpireAt:   base.CreatedAt.Add(hold),
		Status:     ReservationStatusActive,
	}, nil
}

// IsActive returns true if the reservation has not been resolved
func (r *StockReservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// IsExpiredAt returns true if the hold window has elapsed at now
func (r *StockReservation) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpireAt)
}

// TimeUntilExpiry returns the remaining hold, negative if already expired
func (r *StockReservation) TimeUntilExpiry() time.Duration {
	return time.Until(r.ExpireAt)
}

// Resolve ends the reservation with the given outcome. Success confirms the
// hold; every other outcome releases it.
func (r *StockReservation) Resolve(outcome ResolutionOutcome, now time.Time) error {
	if !outcome.IsValid() {
		return shared.NewValidationError("Invalid payment outcome: %s", outcome)
	}
	if !r.IsActive() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Reservation for order %s is already %s", r.OrderCode, r.Status))
	}
	if outcome == OutcomeTimeout && !r.IsExpiredAt(now) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Reservation for order %s has not expired yet", r.OrderCode))
	}
	if outcome == OutcomeSuccess && r.IsExpiredAt(now) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Reservation for order %s expired at %s", r.OrderCode, r.ExpireAt.Format(time.RFC3339)))
	}

	if outcome == OutcomeSuccess {
		r.Status = ReservationStatusConfirmed
	} else {
		r.Status = ReservationStatusReleased
	}
	r.Outcome = outcome
	r.ResolvedAt = &now
	r.Touch(now)
	return nil
}
