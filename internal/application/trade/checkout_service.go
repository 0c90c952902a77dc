package trade

import (
	"context"
	"time"

	appinv "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CheckoutService turns client carts into orders
type CheckoutService struct {
	products       catalog.ProductRepository
	variants       catalog.VariantRepository
	txScope        appinv.TransactionScope
	shipping       trade.ShippingPolicy
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	txScope appinv.TransactionScope,
	logger *zap.Logger,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		products: products,
		variants: variants,
		txScope:  txScope,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetShippingPolicy sets how the shipping fee is priced. Without one,
// orders ship free.
func (s *CheckoutService) SetShippingPolicy(policy trade.ShippingPolicy) {
	s.shipping = policy
}

// ValidateCart annotates each line against the live catalog
func (s *CheckoutService) ValidateCart(ctx context.Context, req ValidateCartRequest) (*trade.CartValidation, error) {
	lines := toCartLines(req.Lines)
	snap, err := s.loadSnapshot(ctx, lines)
	if err != nil {
		return nil, err
	}
	result := trade.ValidateCart(lines, snap)
	return &result, nil
}

func (s *CheckoutService) loadSnapshot(ctx context.Context, lines []trade.CartLine) (catalog.Snapshot, error) {
	productIDs, variantIDs := trade.CartReferences(lines)
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	variants, err := s.variants.FindByIDs(ctx, variantIDs)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	return catalog.NewSnapshot(products, variants), nil
}

// CreateOrder re-validates the cart and creates the order. A COD order
// deducts its stock in the same transaction; an online order waits for
// EnterPaymentReservation. The conditional decrement in the ledger is the
// final word on stock, whatever the validation saw.
func (s *CheckoutService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	method := trade.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewValidationError("Invalid payment method: %s", req.PaymentMethod)
	}
	contact, err := valueobject.NewShippingContact(
		req.Customer.Recipient,
		req.Customer.Phone,
		req.Customer.AddressLine1,
		req.Customer.District,
		req.Customer.City,
		valueobject.WithEmail(req.Customer.Email),
		valueobject.WithWard(req.Customer.Ward),
	)
	if err != nil {
		return nil, shared.NewValidationError("Invalid customer contact: %s", err.Error())
	}

	lines := toCartLines(req.Lines)
	snap, err := s.loadSnapshot(ctx, lines)
	if err != nil {
		return nil, err
	}
	validation := trade.ValidateCart(lines, snap)
	if !validation.IsValid {
		return nil, shared.NewValidationError("Cart cannot be ordered: %s", validation.Reason())
	}

	orderLines := validation.OrderLines()
	order, err := trade.NewOrder(trade.GenerateOrderCode(time.Now()), contact,
		orderLines, s.shipping.FeeFor(orderLines), method, req.Notes)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		if method == trade.PaymentMethodCOD {
			if _, err := repos.Ledger().Deduct(ctx, order.StockLines()); err != nil {
				return err
			}
			if err := recordMovements(ctx, repos.Movements(), order.StockLines(),
				inventory.MovementTypeSale, inventory.SourceTypeOrder, order.ID, order.OrderCode, "cash on delivery order"); err != nil {
				return err
			}
		}
		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		publishShortfall(ctx, s.eventPublisher, s.logger, err, inventory.SourceTypeOrder, order.ID)
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_code", order.OrderCode),
		zap.String("payment_method", string(method)),
		zap.String("total", order.TotalAmount.String()),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	resp := ToOrderResponse(order)
	return &resp, nil
}
