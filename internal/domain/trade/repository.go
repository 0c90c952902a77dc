package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Phone         string
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByCode(ctx context.Context, code string) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	// Create inserts a new order with its items
	Create(ctx context.Context, order *Order) error
	// SaveWithLock updates an existing order if its version is unchanged,
	// returning a CONCURRENCY_CONFLICT error otherwise
	SaveWithLock(ctx context.Context, order *Order) error
}

// ReturnRequestRepository defines the interface for return request persistence
type ReturnRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnRequest, error)
	Create(ctx context.Context, r *ReturnRequest) error
	SaveWithLock(ctx context.Context, r *ReturnRequest) error
}
