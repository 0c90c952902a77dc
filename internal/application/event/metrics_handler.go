package event

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
)

// MetricsRecorder receives business measurements derived from events
type MetricsRecorder interface {
	RecordOrderCreated(ctx context.Context, paymentMethod string, total decimal.Decimal)
	RecordOrderCancelled(ctx context.Context, paymentStatus string)
	RecordReservationResolved(ctx context.Context, outcome string)
	RecordStockShortfall(ctx context.Context, sourceType string, lines int)
	RecordReturnTransition(ctx context.Context, returnType, status string)
}

// MetricsHandler turns domain events into business metrics
type MetricsHandler struct {
	recorder MetricsRecorder
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(recorder MetricsRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes lists the events that carry a measurement
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderPaid,
		trade.EventTypeOrderCancelled,
		inventory.EventTypeStockShortfall,
		trade.EventTypeReturnRequested,
		trade.EventTypeReturnApproved,
		trade.EventTypeReturnRejected,
		trade.EventTypeReturnReceived,
		trade.EventTypeReturnCompleted,
		trade.EventTypeReturnCancelled,
	}
}

// Handle records the measurement for one event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		h.recorder.RecordOrderCreated(ctx, string(e.PaymentMethod), e.TotalAmount)
	case *trade.OrderPaidEvent:
		h.recorder.RecordReservationResolved(ctx, inventory.OutcomeSuccess.String())
	case *trade.OrderCancelledEvent:
		h.recorder.RecordOrderCancelled(ctx, string(e.PaymentStatus))
		// a released hold carries its outcome as the reason
		if outcome := inventory.ResolutionOutcome(e.Reason); outcome.ReleasesStock() {
			h.recorder.RecordReservationResolved(ctx, outcome.String())
		}
	case *inventory.StockShortfallEvent:
		h.recorder.RecordStockShortfall(ctx, string(e.SourceType), len(e.Failed))
	case *trade.ReturnRequestEvent:
		h.recorder.RecordReturnTransition(ctx, string(e.ReturnType), string(e.Status))
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
