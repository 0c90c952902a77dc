package inventory

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// DefaultSweepBatchSize bounds how many expired reservations one sweep handles
const DefaultSweepBatchSize = 100

// ReservationResolver releases one expired reservation: it restores the
// held stock and cancels the order exactly once.
type ReservationResolver interface {
	ExpireReservation(ctx context.Context, reservation *inventory.StockReservation) error
}

// ReservationExpirationService is the server-side sweep that releases
// payment holds whose customer never came back. It covers holds whose
// in-process timer was lost to a restart.
type ReservationExpirationService struct {
	reservations inventory.ReservationRepository
	resolver     ReservationResolver
	logger       *zap.Logger
	batchSize    int
	now          func() time.Time
}

// NewReservationExpirationService creates a new ReservationExpirationService
func NewReservationExpirationService(
	reservations inventory.ReservationRepository,
	resolver ReservationResolver,
	logger *zap.Logger,
) *ReservationExpirationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationExpirationService{
		reservations: reservations,
		resolver:     resolver,
		logger:       logger,
		batchSize:    DefaultSweepBatchSize,
		now:          time.Now,
	}
}

// SetBatchSize overrides the per-sweep limit
func (s *ReservationExpirationService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// ExpiredReservationStats contains statistics about one sweep
type ExpiredReservationStats struct {
	TotalExpired int       `json:"total_expired"`
	Released     int       `json:"released"`
	Failed       int       `json:"failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ReleaseExpired finds active reservations past their ExpireAt and resolves
// each with a timeout. A failure on one reservation does not stop the rest.
func (s *ReservationExpirationService) ReleaseExpired(ctx context.Context) (*ExpiredReservationStats, error) {
	stats := &ExpiredReservationStats{ProcessedAt: s.now()}

	expired, err := s.reservations.FindExpired(ctx, stats.ProcessedAt, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to find expired reservations", zap.Error(err))
		return nil, err
	}

	stats.TotalExpired = len(expired)
	if stats.TotalExpired == 0 {
		s.logger.Debug("No expired reservations found")
		return stats, nil
	}
	s.logger.Info("Found expired reservations", zap.Int("count", stats.TotalExpired))

	for i := range expired {
		res := &expired[i]
		if err := s.resolver.ExpireReservation(ctx, res); err != nil {
			s.logger.Error("Failed to release expired reservation",
				zap.String("reservation_id", res.ID.String()),
				zap.String("order_code", res.OrderCode),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Released++
	}

	s.logger.Info("Completed expired reservation release",
		zap.Int("total", stats.TotalExpired),
		zap.Int("released", stats.Released),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
