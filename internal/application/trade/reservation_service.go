package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	appinv "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ReservationConfig tunes payment holds
type ReservationConfig struct {
	// Hold is how long stock stays deducted while the customer pays
	Hold time.Duration
	// ResolveRetries bounds retries of a resolution that hit a conflict
	ResolveRetries int
	// RetryBackoff is the base wait between retries, growing linearly
	RetryBackoff time.Duration
	// IdempotencyTTL is how long a payment callback key is remembered
	IdempotencyTTL time.Duration
	// TimerTimeout bounds the work a firing hold timer may do
	TimerTimeout time.Duration
}

// DefaultReservationConfig returns the default hold settings
func DefaultReservationConfig() ReservationConfig {
	return ReservationConfig{
		Hold:           300 * time.Second,
		ResolveRetries: 3,
		RetryBackoff:   50 * time.Millisecond,
		IdempotencyTTL: 24 * time.Hour,
		TimerTimeout:   30 * time.Second,
	}
}

// ReservationService runs the payment hold of online orders. Entering a
// reservation deducts the order's stock; the hold then resolves exactly
// once, by the payment callback, by the customer, or by expiry.
type ReservationService struct {
	txScope        appinv.TransactionScope
	orders         trade.OrderRepository
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	cfg            ReservationConfig
	now            func() time.Time

	mu       sync.Mutex
	timers   map[uuid.UUID]*time.Timer // by order ID
	resolved map[uuid.UUID]bool        // by reservation ID
	stopped  bool
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	txScope appinv.TransactionScope,
	orders trade.OrderRepository,
	cfg ReservationConfig,
	logger *zap.Logger,
) *ReservationService {
	def := DefaultReservationConfig()
	if cfg.Hold <= 0 {
		cfg.Hold = def.Hold
	}
	if cfg.ResolveRetries < 0 {
		cfg.ResolveRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = def.IdempotencyTTL
	}
	if cfg.TimerTimeout <= 0 {
		cfg.TimerTimeout = def.TimerTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		txScope:  txScope,
		orders:   orders,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		timers:   make(map[uuid.UUID]*time.Timer),
		resolved: make(map[uuid.UUID]bool),
	}
}

// SetEventPublisher sets the event publisher
func (s *ReservationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables deduplication of payment callbacks
func (s *ReservationService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// EnterPaymentReservation deducts the stock of an unpaid online order and
// starts its hold window. On shortfall nothing is persisted.
func (s *ReservationService) EnterPaymentReservation(ctx context.Context, orderID uuid.UUID) (*ReservationHandle, error) {
	var (
		order       *trade.Order
		reservation *inventory.StockReservation
	)
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		reservation, err = inventory.NewStockReservation(order.ID, order.OrderCode, order.StockLines(), s.cfg.Hold)
		if err != nil {
			return err
		}
		// state checks happen before any stock moves
		if err := order.MarkReserved(reservation.ExpireAt); err != nil {
			return err
		}
		if _, err := repos.Ledger().Deduct(ctx, reservation.Lines); err != nil {
			return err
		}
		if err := recordMovements(ctx, repos.Movements(), reservation.Lines,
			inventory.MovementTypeReserve, inventory.SourceTypeReservation, reservation.ID, order.OrderCode, "payment hold"); err != nil {
			return err
		}
		if err := repos.Reservations().Create(ctx, reservation); err != nil {
			return err
		}
		return repos.Orders().SaveWithLock(ctx, order)
	})
	if err != nil {
		publishShortfall(ctx, s.eventPublisher, s.logger, err, inventory.SourceTypeOrder, orderID)
		return nil, err
	}

	s.arm(order.ID, reservation.ExpireAt)
	s.logger.Info("Payment reservation entered",
		zap.String("order_code", order.OrderCode),
		zap.String("reservation_id", reservation.ID.String()),
		zap.Time("expire_at", reservation.ExpireAt),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	remaining := int(reservation.ExpireAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &ReservationHandle{
		ReservationID:    reservation.ID,
		OrderID:          order.ID,
		OrderCode:        order.OrderCode,
		ExpireAt:         reservation.ExpireAt,
		RemainingSeconds: remaining,
	}, nil
}

// ResolvePayment ends the order's hold with outcome. Success confirms the
// payment and keeps the stock deducted; any other outcome restores it and
// cancels the order. A hold that is already resolved makes this a no-op
// returning the current order. A non-empty idempotencyKey deduplicates
// repeated payment callbacks.
func (s *ReservationService) ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome inventory.ResolutionOutcome, idempotencyKey string) (*trade.Order, error) {
	if !outcome.IsValid() {
		return nil, shared.NewValidationError("Invalid payment outcome: %s", outcome)
	}

	key := ""
	if idempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("payment:%s:%s", orderID, idempotencyKey)
		seen, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			s.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
		} else if seen {
			s.logger.Info("Duplicate payment callback ignored", zap.String("order_id", orderID.String()))
			return s.orders.FindByID(ctx, orderID)
		}
	}

	var order *trade.Order
	err := retryOnConflict(ctx, s.cfg.ResolveRetries, s.cfg.RetryBackoff, func() error {
		var err error
		order, err = s.resolveOnce(ctx, orderID, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}

	if key != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to record payment callback key", zap.String("key", key), zap.Error(err))
		}
	}
	return order, nil
}

// ExpireReservation resolves an expired hold found by the sweep
func (s *ReservationService) ExpireReservation(ctx context.Context, reservation *inventory.StockReservation) error {
	_, err := s.ResolvePayment(ctx, reservation.OrderID, inventory.OutcomeTimeout, "")
	return err
}

func (s *ReservationService) resolveOnce(ctx context.Context, orderID uuid.UUID, outcome inventory.ResolutionOutcome) (*trade.Order, error) {
	var (
		order       *trade.Order
		reservation *inventory.StockReservation
		applied     bool
	)
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		reservation, err = repos.Reservations().FindActiveByOrder(ctx, orderID)
		if errors.Is(err, shared.ErrNotFound) {
			if order.Status() == trade.OrderStatusPendingPayment && order.PaymentStatus() == trade.PaymentStatusUnpaid {
				return shared.NewDomainError(shared.CodeInvalidState,
					fmt.Sprintf("Order %s has no payment reservation", order.OrderCode))
			}
			// resolved earlier
			reservation = nil
			return nil
		}
		if err != nil {
			return err
		}
		if s.isResolved(reservation.ID) {
			return nil
		}

		if err := reservation.Resolve(outcome, s.now()); err != nil {
			return err
		}
		won, err := repos.Reservations().MarkResolved(ctx, reservation)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		if outcome == inventory.OutcomeSuccess {
			if err := order.ConfirmPayment(); err != nil {
				return err
			}
		} else {
			if err := repos.Ledger().Restore(ctx, reservation.Lines); err != nil {
				return err
			}
			if err := recordMovements(ctx, repos.Movements(), reservation.Lines,
				inventory.MovementTypeRelease, inventory.SourceTypeReservation, reservation.ID,
				order.OrderCode, "payment "+outcome.String()); err != nil {
				return err
			}
			if err := order.ReleaseReservation(outcome); err != nil {
				return err
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reservation != nil {
		s.markResolved(reservation.ID, orderID)
	}
	if !applied {
		order.ClearDomainEvents()
		return order, nil
	}

	s.logger.Info("Payment reservation resolved",
		zap.String("order_code", order.OrderCode),
		zap.String("outcome", outcome.String()),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, order)
	if outcome == inventory.OutcomeTimeout && s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, inventory.NewReservationExpiredEvent(reservation)); err != nil {
			s.logger.Warn("Failed to publish reservation expired event", zap.Error(err))
		}
	}
	return order, nil
}

// arm starts the in-process hold timer. The sweep is the fallback when the
// process restarts before it fires.
func (s *ReservationService) arm(orderID uuid.UUID, expireAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
	}
	delay := expireAt.Sub(s.now())
	s.timers[orderID] = time.AfterFunc(delay, func() { s.onTimer(orderID) })
}

func (s *ReservationService) onTimer(orderID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TimerTimeout)
	defer cancel()
	if _, err := s.ResolvePayment(ctx, orderID, inventory.OutcomeTimeout, ""); err != nil {
		s.logger.Warn("Hold timer could not release reservation; the sweep will retry",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
	s.mu.Lock()
	delete(s.timers, orderID)
	s.mu.Unlock()
}

func (s *ReservationService) isResolved(reservationID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved[reservationID]
}

func (s *ReservationService) markResolved(reservationID, orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved[reservationID] = true
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
		delete(s.timers, orderID)
	}
}

// ArmedTimers returns the number of holds with a live timer
func (s *ReservationService) ArmedTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every hold timer. Holds left active are released by the sweep.
func (s *ReservationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

var _ appinv.ReservationResolver = (*ReservationService)(nil)
