package scheduler

import (
	"context"
	"time"

	appinv "github.com/storefront/backend/internal/application/inventory"
	"go.uber.org/zap"
)

// ReservationSweepJobName names the expired-hold sweep
const ReservationSweepJobName = "reservation-sweep"

// SweepRecorder receives the outcome of each sweep
type SweepRecorder interface {
	RecordSweep(ctx context.Context, released, failed int)
}

// ExpiredReservationReleaser is the sweep's unit of work
type ExpiredReservationReleaser interface {
	ReleaseExpired(ctx context.Context) (*appinv.ExpiredReservationStats, error)
}

// ReservationSweepConfig configures the sweep job
type ReservationSweepConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// NewReservationSweepJob wraps the release of expired payment holds as a
// scheduler job. It runs once at start so holds that expired while the
// process was down are released promptly.
func NewReservationSweepJob(cfg ReservationSweepConfig, releaser ExpiredReservationReleaser, recorder SweepRecorder, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = cfg.Interval
	}
	return Job{
		Name:       ReservationSweepJobName,
		Interval:   cfg.Interval,
		Timeout:    timeout,
		RunOnStart: true,
		Runner: RunnerFunc(func(ctx context.Context) error {
			stats, err := releaser.ReleaseExpired(ctx)
			if err != nil {
				return err
			}
			if recorder != nil && stats.TotalExpired > 0 {
				recorder.RecordSweep(ctx, stats.Released, stats.Failed)
			}
			if stats.Failed > 0 {
				logger.Warn("Some expired reservations could not be released",
					zap.Int("failed", stats.Failed),
					zap.Int("released", stats.Released),
				)
			}
			return nil
		}),
	}
}
