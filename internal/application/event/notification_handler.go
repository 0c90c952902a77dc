package event

import (
	"context"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// NotificationHandler is the default sink for emitted events. It writes
// one structured log line per event and never fails the publisher.
type NotificationHandler struct {
	logger *zap.Logger
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{logger: logger.Named("notifications")}
}

// EventTypes returns nil: the handler receives every event
func (h *NotificationHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with the fields a downstream notifier would use
func (h *NotificationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		fields = append(fields,
			zap.String("order_code", e.OrderCode),
			zap.String("payment_method", string(e.PaymentMethod)),
			zap.String("total_amount", e.TotalAmount.String()),
			zap.Int("items", len(e.Items)),
		)
	case *trade.OrderPaymentReservedEvent:
		fields = append(fields, zap.String("order_code", e.OrderCode), zap.Time("expire_at", e.ExpireAt))
	case *trade.OrderPaidEvent:
		fields = append(fields, zap.String("order_code", e.OrderCode), zap.String("total_amount", e.TotalAmount.String()))
	case *trade.OrderCancelledEvent:
		fields = append(fields,
			zap.String("order_code", e.OrderCode),
			zap.String("reason", e.Reason),
			zap.Bool("refund_required", e.RefundRequired),
		)
	case *trade.OrderStatusChangedEvent:
		fields = append(fields,
			zap.String("order_code", e.OrderCode),
			zap.String("from", string(e.FromStatus)+"/"+string(e.FromPayment)),
			zap.String("to", string(e.ToStatus)+"/"+string(e.ToPayment)),
		)
	case *trade.ReturnRequestEvent:
		fields = append(fields,
			zap.String("request_code", e.RequestCode),
			zap.String("order_code", e.OrderCode),
			zap.String("return_type", string(e.ReturnType)),
			zap.String("status", string(e.Status)),
		)
	case *inventory.ReservationExpiredEvent:
		fields = append(fields, zap.String("order_code", e.OrderCode), zap.Int("lines", len(e.Lines)))
	case *inventory.StockShortfallEvent:
		fields = append(fields,
			zap.String("source_type", string(e.SourceType)),
			zap.String("source_id", e.SourceID.String()),
			zap.Int("failed_lines", len(e.Failed)),
		)
	}

	h.logger.Info("Domain event emitted", fields...)
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
