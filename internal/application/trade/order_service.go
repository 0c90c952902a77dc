package trade

import (
	"context"

	"github.com/google/uuid"
	appinv "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PaymentResolver resolves an order's payment hold
type PaymentResolver interface {
	ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome inventory.ResolutionOutcome, idempotencyKey string) (*trade.Order, error)
}

// OrderService handles staff order operations and order queries
type OrderService struct {
	orderRepo      trade.OrderRepository
	txScope        appinv.TransactionScope
	payments       PaymentResolver
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo trade.OrderRepository, txScope appinv.TransactionScope, payments PaymentResolver, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
		payments:  payments,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByCode retrieves an order by its order code
func (s *OrderService) GetByCode(ctx context.Context, code string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := trade.OrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		PaymentMethod: trade.PaymentMethod(filter.PaymentMethod),
		Phone:         filter.Phone,
	}
	if filter.Status != "" {
		status := trade.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid order status: %s", filter.Status)
		}
		domainFilter.Status = status
	}
	if filter.PaymentStatus != "" {
		payment := trade.PaymentStatus(filter.PaymentStatus)
		if !payment.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid payment status: %s", filter.PaymentStatus)
		}
		domainFilter.PaymentStatus = payment
	}

	orders, total, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderListItemResponse(&orders[i])
	}
	return items, total, nil
}

// Pack moves a confirmed order to packing
func (s *OrderService) Pack(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*trade.Order).Pack)
}

// Ship marks a packed order as shipped
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*trade.Order).Ship)
}

// Complete marks a shipped order as delivered
func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*trade.Order).Complete)
}

// MarkRefunded records that staff paid a pending refund
func (s *OrderService) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*trade.Order).MarkRefunded)
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, apply func(*trade.Order) error) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := apply(order); err != nil {
		return nil, err
	}
	// Save with optimistic locking
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels an order before packing. Stock the order holds is put
// back in the same transaction. An order in its payment hold is cancelled
// through the hold so the stock is released exactly once.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	bankInfo, err := toBankInfo(req.BankInfo)
	if err != nil {
		return nil, err
	}

	current, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus() == trade.PaymentStatusReserved && current.Status() == trade.OrderStatusPendingPayment {
		if s.payments == nil {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "Order has an active payment reservation")
		}
		order, err := s.payments.ResolvePayment(ctx, orderID, inventory.OutcomeCancel, "")
		if err != nil {
			return nil, err
		}
		response := ToOrderResponse(order)
		return &response, nil
	}

	var order *trade.Order
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		holdsStock := order.State().HoldsStock()
		if err := order.Cancel(req.Reason, bankInfo); err != nil {
			return err
		}
		if holdsStock {
			if err := repos.Ledger().Restore(ctx, order.StockLines()); err != nil {
				return err
			}
			if err := recordMovements(ctx, repos.Movements(), order.StockLines(),
				inventory.MovementTypeCancelRestore, inventory.SourceTypeOrder, order.ID, order.OrderCode, order.CancelReason); err != nil {
				return err
			}
		}
		return repos.Orders().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_code", order.OrderCode),
		zap.String("payment_status", string(order.PaymentStatus())),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	response := ToOrderResponse(order)
	return &response, nil
}
