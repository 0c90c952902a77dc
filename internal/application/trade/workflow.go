package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// recordMovements writes one audit movement per line. Call it inside the
// transaction that changed the stock.
func recordMovements(
	ctx context.Context,
	repo inventory.MovementRepository,
	lines []inventory.StockLine,
	movementType inventory.MovementType,
	sourceType inventory.SourceType,
	sourceID uuid.UUID,
	referenceCode, reason string,
) error {
	movements, err := inventory.MovementsFor(lines, movementType, sourceType, sourceID, referenceCode, reason)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, movements)
}

// publishEvents emits the aggregates' pending events after a commit. The
// state change already happened, so a publish failure is only logged.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	if err := shared.PublishAndClear(ctx, publisher, aggregates...); err != nil {
		logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

// publishShortfall emits a StockShortfall event when err carries failed lines
func publishShortfall(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, err error, sourceType inventory.SourceType, sourceID uuid.UUID) {
	var unavailable *inventory.StockUnavailableError
	if publisher == nil || !errors.As(err, &unavailable) {
		return
	}
	event := inventory.NewStockShortfallEvent(sourceType, sourceID, unavailable.Failed)
	if pubErr := publisher.Publish(ctx, event); pubErr != nil {
		logger.Warn("Failed to publish stock shortfall event", zap.Error(pubErr))
	}
}

// retryOnConflict runs fn until it succeeds, fails with a non-retryable
// error, or has been retried `retries` times. The wait grows linearly.
func retryOnConflict(ctx context.Context, retries int, backoff time.Duration, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !shared.IsRetryable(err) || attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt+1)):
		}
	}
}
