package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockStockLedger is a mock implementation of inventory.StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) CheckAvailability(ctx context.Context, lines []inventory.StockLine) ([]inventory.LineAvailability, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.LineAvailability), args.Error(1)
}

func (m *MockStockLedger) Deduct(ctx context.Context, lines []inventory.StockLine) (*inventory.DeductionReport, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.DeductionReport), args.Error(1)
}

func (m *MockStockLedger) Restore(ctx context.Context, lines []inventory.StockLine) error {
	return m.Called(ctx, lines).Error(0)
}

// MockMovementRepository is a mock implementation of inventory.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) SaveBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	return m.Called(ctx, movements).Error(0)
}

func (m *MockMovementRepository) FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, variantID, filter)
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockMovementRepository) FindBySource(ctx context.Context, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, sourceType, sourceID)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

// MockReservationRepository is a mock implementation of inventory.ReservationRepository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockReservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockReservation), args.Error(1)
}

func (m *MockReservationRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*inventory.StockReservation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockReservation), args.Error(1)
}

func (m *MockReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]inventory.StockReservation, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockReservation), args.Error(1)
}

func (m *MockReservationRepository) Create(ctx context.Context, r *inventory.StockReservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReservationRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) MarkResolved(ctx context.Context, r *inventory.StockReservation) (bool, error) {
	args := m.Called(ctx, r)
	return args.Bool(0), args.Error(1)
}

// MockReservationResolver is a mock implementation of ReservationResolver
type MockReservationResolver struct {
	mock.Mock
}

func (m *MockReservationResolver) ExpireReservation(ctx context.Context, r *inventory.StockReservation) error {
	return m.Called(ctx, r).Error(0)
}
