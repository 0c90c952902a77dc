package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// InventoryService answers read-side inventory questions. Stock is only
// ever changed by the order and return workflows.
type InventoryService struct {
	ledger    inventory.StockLedger
	movements inventory.MovementRepository
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(ledger inventory.StockLedger, movements inventory.MovementRepository) *InventoryService {
	return &InventoryService{
		ledger:    ledger,
		movements: movements,
	}
}

// CheckAvailability reports per line whether it could be deducted now
func (s *InventoryService) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*AvailabilityResponse, error) {
	result, err := s.ledger.CheckAvailability(ctx, toStockLines(req.Lines))
	if err != nil {
		return nil, err
	}
	resp := &AvailabilityResponse{Lines: result, AllAvailable: len(result) > 0}
	for _, l := range result {
		if !l.IsAvailable {
			resp.AllAvailable = false
			break
		}
	}
	return resp, nil
}

// ListMovements pages through the audit trail of one variant
func (s *InventoryService) ListMovements(ctx context.Context, variantID uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]any),
	}
	if filter.MovementType != "" {
		mt := inventory.MovementType(filter.MovementType)
		if !mt.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid movement type: %s", filter.MovementType)
		}
		domainFilter.Filters["movement_type"] = mt
	}

	movements, total, err := s.movements.FindByVariant(ctx, variantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, total, nil
}
