package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReservationRepository defines persistence for payment holds.
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockReservation, error)
	// FindActiveByOrder returns the order's unresolved reservation or ErrNotFound
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*StockReservation, error)
	// FindExpired returns active reservations whose ExpireAt is not after now
	FindExpired(ctx context.Context, now time.Time, limit int) ([]StockReservation, error)
	Create(ctx context.Context, r *StockReservation) error
	CountActive(ctx context.Context) (int64, error)
	// MarkResolved persists a resolution only if the row is still ACTIVE.
	// It returns false when another caller resolved it first.
	MarkResolved(ctx context.Context, r *StockReservation) (bool, error)
}

// MovementRepository stores the stock audit trail
type MovementRepository interface {
	SaveBatch(ctx context.Context, movements []*StockMovement) error
	FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]StockMovement, error)
}
