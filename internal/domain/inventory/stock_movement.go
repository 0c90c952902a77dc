package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MovementType represents the kind of stock movement
type MovementType string

const (
	// MovementTypeSale is a COD order deducting stock at creation
	MovementTypeSale MovementType = "SALE"
	// MovementTypeReserve is an online order deducting stock for the payment hold
	MovementTypeReserve MovementType = "RESERVE"
	// MovementTypeRelease returns a reservation's stock after failure, cancel or timeout
	MovementTypeRelease MovementType = "RELEASE"
	// MovementTypeCancelRestore returns stock of a cancelled order
	MovementTypeCancelRestore MovementType = "CANCEL_RESTORE"
	// MovementTypeReturnIn is a returned item received back into stock
	MovementTypeReturnIn MovementType = "RETURN_IN"
	// MovementTypeExchangeOut is the replacement item shipped for an exchange
	MovementTypeExchangeOut MovementType = "EXCHANGE_OUT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale, MovementTypeReserve, MovementTypeRelease,
		MovementTypeCancelRestore, MovementTypeReturnIn, MovementTypeExchangeOut:
		return true
	}
	return false
}

// IsIncrease returns true if the movement adds stock back
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementTypeRelease, MovementTypeCancelRestore, MovementTypeReturnIn:
		return true
	}
	return false
}

// SourceType represents the document that caused a movement
type SourceType string

const (
	SourceTypeOrder         SourceType = "ORDER"
	SourceTypeReservation   SourceType = "RESERVATION"
	SourceTypeReturnRequest SourceType = "RETURN_REQUEST"
)

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeOrder, SourceTypeReservation, SourceTypeReturnRequest:
		return true
	}
	return false
}

// StockMovement is an immutable audit record of one stock change.
// Corrections are made with new movements, never by editing old ones.
type StockMovement struct {
	shared.BaseEntity
	VariantID     uuid.UUID
	MovementType  MovementType
	Quantity      int // always positive, direction comes from MovementType
	SourceType    SourceType
	SourceID      uuid.UUID
	ReferenceCode string // order or request code, for humans
	Reason        string
	OccurredAt    time.Time
}

// NewStockMovement creates a validated movement record
func NewStockMovement(variantID uuid.UUID, movementType MovementType, quantity int, sourceType SourceType, sourceID uuid.UUID, referenceCode, reason string) (*StockMovement, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("Variant ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("Invalid movement type: %s", movementType)
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("Movement quantity must be positive")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("Invalid source type: %s", sourceType)
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewValidationError("Source ID cannot be empty")
	}

	base := shared.NewBaseEntity()
	return &StockMovement{
		BaseEntity:    base,
		VariantID:     variantID,
		MovementType:  movementType,
		Quantity:      quantity,
		SourceType:    sourceType,
		SourceID:      sourceID,
		ReferenceCode: strings.TrimSpace(referenceCode),
		Reason:        strings.TrimSpace(reason),
		OccurredAt:    base.CreatedAt,
	}, nil
}

// SignedQuantity returns the quantity with the direction applied
func (m *StockMovement) SignedQuantity() int {
	if m.MovementType.IsIncrease() {
		return m.Quantity
	}
	return -m.Quantity
}

// MovementsFor builds one movement per line
func MovementsFor(lines []StockLine, movementType MovementType, sourceType SourceType, sourceID uuid.UUID, referenceCode, reason string) ([]*StockMovement, error) {
	out := make([]*StockMovement, 0, len(lines))
	for _, l := range lines {
		m, err := NewStockMovement(l.VariantID, movementType, l.Quantity, sourceType, sourceID, referenceCode, reason)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
