package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
)

// StockLineInput is one requested line of an availability check
type StockLineInput struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=10000"`
}

// CheckAvailabilityRequest asks whether a set of lines could be deducted now
type CheckAvailabilityRequest struct {
	Lines []StockLineInput `json:"lines" binding:"required,min=1,dive"`
}

// AvailabilityResponse answers a CheckAvailabilityRequest
type AvailabilityResponse struct {
	Lines        []inventory.LineAvailability `json:"lines"`
	AllAvailable bool                         `json:"all_available"`
}

// MovementListFilter represents filter options for a variant's movements
type MovementListFilter struct {
	MovementType string `form:"movement_type" binding:"omitempty,oneof=SALE RESERVE RELEASE CANCEL_RESTORE RETURN_IN EXCHANGE_OUT"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID             uuid.UUID `json:"id"`
	VariantID      uuid.UUID `json:"variant_id"`
	MovementType   string    `json:"movement_type"`
	Quantity       int       `json:"quantity"`
	SignedQuantity int       `json:"signed_quantity"`
	SourceType     string    `json:"source_type"`
	SourceID       uuid.UUID `json:"source_id"`
	ReferenceCode  string    `json:"reference_code,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ToMovementResponse converts a domain movement to a response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		VariantID:      m.VariantID,
		MovementType:   string(m.MovementType),
		Quantity:       m.Quantity,
		SignedQuantity: m.SignedQuantity(),
		SourceType:     string(m.SourceType),
		SourceID:       m.SourceID,
		ReferenceCode:  m.ReferenceCode,
		Reason:         m.Reason,
		OccurredAt:     m.OccurredAt,
	}
}

func toStockLines(in []StockLineInput) []inventory.StockLine {
	lines := make([]inventory.StockLine, len(in))
	for i, l := range in {
		lines[i] = inventory.StockLine{VariantID: l.VariantID, Quantity: l.Quantity}
	}
	return lines
}
