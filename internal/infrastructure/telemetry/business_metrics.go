package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when BusinessMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ActiveReservationCounter reports how many payment holds are unresolved
type ActiveReservationCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter        metric.Meter
	Logger       *zap.Logger
	Reservations ActiveReservationCounter
}

// BusinessMetrics records storefront activity: orders, payment holds,
// stock shortfalls and return transitions.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersCreated        *Counter
	orderAmount          *Counter
	ordersCancelled      *Counter
	reservationsResolved *Counter
	stockShortfalls      *Counter
	returnTransitions    *Counter
	sweepReleased        *Counter
	activeReservations   *Gauge

	reservations ActiveReservationCounter
	stopChan     chan struct{}
	stopOnce     sync.Once
	collectOnce  sync.Once
}

// NewBusinessMetrics creates the storefront instruments on cfg.Meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{
		logger:       logger,
		reservations: cfg.Reservations,
		stopChan:     make(chan struct{}),
	}

	counters := []struct {
		target           **Counter
		name, desc, unit string
	}{
		{&bm.ordersCreated, "storefront_orders_created_total", "Orders placed", "{orders}"},
		{&bm.orderAmount, "storefront_order_amount_total", "Order totals in minor currency units", "{cents}"},
		{&bm.ordersCancelled, "storefront_orders_cancelled_total", "Orders cancelled", "{orders}"},
		{&bm.reservationsResolved, "storefront_reservations_resolved_total", "Payment holds resolved, by outcome", "{reservations}"},
		{&bm.stockShortfalls, "storefront_stock_shortfalls_total", "Stock deductions refused for lack of stock", "{lines}"},
		{&bm.returnTransitions, "storefront_return_transitions_total", "Return request status changes", "{transitions}"},
		{&bm.sweepReleased, "storefront_reservation_sweep_total", "Expired holds handled by the sweep", "{reservations}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.activeReservations, err = NewGauge(cfg.Meter,
		"storefront_active_reservations", "Payment holds not yet resolved", "{reservations}")
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOrderCreated counts a new order and its total
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, paymentMethod string, total decimal.Decimal) {
	attr := AttrPaymentMethod.String(paymentMethod)
	bm.ordersCreated.Inc(ctx, attr)
	bm.orderAmount.Add(ctx, total.Shift(2).IntPart(), attr)
}

// RecordOrderCancelled counts a cancellation by the resulting payment status
func (bm *BusinessMetrics) RecordOrderCancelled(ctx context.Context, paymentStatus string) {
	bm.ordersCancelled.Inc(ctx, AttrPaymentStatus.String(paymentStatus))
}

// RecordReservationResolved counts a hold resolution
func (bm *BusinessMetrics) RecordReservationResolved(ctx context.Context, outcome string) {
	bm.reservationsResolved.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordStockShortfall counts the refused lines of one failed deduction
func (bm *BusinessMetrics) RecordStockShortfall(ctx context.Context, sourceType string, lines int) {
	bm.stockShortfalls.Add(ctx, int64(lines), AttrSourceType.String(sourceType))
}

// RecordReturnTransition counts a return request reaching status
func (bm *BusinessMetrics) RecordReturnTransition(ctx context.Context, returnType, status string) {
	bm.returnTransitions.Inc(ctx, AttrReturnType.String(returnType), AttrReturnStatus.String(status))
}

// RecordSweep counts one sweep run's results
func (bm *BusinessMetrics) RecordSweep(ctx context.Context, released, failed int) {
	if released > 0 {
		bm.sweepReleased.Add(ctx, int64(released), AttrResult.String("released"))
	}
	if failed > 0 {
		bm.sweepReleased.Add(ctx, int64(failed), AttrResult.String("failed"))
	}
}

// StartPeriodicCollection samples the active reservation gauge every
// interval until Stop or ctx ends. It is non-blocking.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if bm.reservations == nil {
		return
	}
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collect(ctx)
	for {
		select {
		case <-bm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collect(ctx)
		}
	}
}

func (bm *BusinessMetrics) collect(ctx context.Context) {
	n, err := bm.reservations.CountActive(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count active reservations", zap.Error(err))
		return
	}
	bm.activeReservations.Record(ctx, n)
}

// Stop ends periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() { close(bm.stopChan) })
}
