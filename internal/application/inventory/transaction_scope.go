package inventory

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/trade"
)

// TransactionScope runs a unit of work atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction. A returned error
	// rolls everything back; otherwise the transaction commits.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories that share one transaction.
//
// Stock and order state must change together: a workflow deducts through
// Ledger, records the audit trail through Movements and saves the order or
// return request in the same scope.
type TransactionalRepositories interface {
	Ledger() inventory.StockLedger
	Movements() inventory.MovementRepository
	Reservations() inventory.ReservationRepository
	Orders() trade.OrderRepository
	Returns() trade.ReturnRequestRepository
	Variants() catalog.VariantRepository
}

// Repositories bundles plain repositories for NoOpTransactionScope
type Repositories struct {
	Ledger       inventory.StockLedger
	Movements    inventory.MovementRepository
	Reservations inventory.ReservationRepository
	Orders       trade.OrderRepository
	Returns      trade.ReturnRequestRepository
	Variants     catalog.VariantRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for unit tests with mocked repositories.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Ledger() inventory.StockLedger           { return s.repos.Ledger }
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository { return s.repos.Movements }
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository {
	return s.repos.Reservations
}
func (s *NoOpTransactionScope) Orders() trade.OrderRepository          { return s.repos.Orders }
func (s *NoOpTransactionScope) Returns() trade.ReturnRequestRepository { return s.repos.Returns }
func (s *NoOpTransactionScope) Variants() catalog.VariantRepository    { return s.repos.Variants }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
