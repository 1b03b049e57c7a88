package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Runner is one unit of scheduled work.
type Runner interface {
	Run(ctx context.Context) (PriceReport, error)
}

// Scheduler triggers the price update once a day at a fixed hour.
type Scheduler struct {
	job  Runner
	hour int
	log  *zap.Logger
	now  func() time.Time
}

// NewScheduler runs job daily at hour (0-23, server local time).
func NewScheduler(job Runner, hour int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{job: job, hour: hour, log: log, now: time.Now}
}

// NextRun returns the first scheduled instant strictly after now.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("price scheduler started", zap.Int("hour", s.hour))
	for {
		next := NextRun(s.now(), s.hour)
		wait := next.Sub(s.now())
		s.log.Info("next price update", zap.Time("at", next), zap.Duration("in", wait.Round(time.Second)))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("price scheduler stopped")
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.job.Run(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.log.Warn("price update skipped, another run holds the lock")
	case err != nil:
		s.log.Error("price update failed", zap.Error(err))
	default:
		s.log.Info("price update complete", zap.Int("updated", report.Updated), zap.Int("failed", report.Failed))
	}
}
