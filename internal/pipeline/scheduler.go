package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler drives the Monitor on a fixed interval until its context ends.
// The first tick fires immediately on Run, not one interval later.
type Scheduler struct {
	monitor  *Monitor
	interval time.Duration
	logger   *slog.Logger
	clock    clockwork.Clock
}

// NewScheduler creates a Scheduler around the given monitor.
func NewScheduler(monitor *Monitor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		monitor:  monitor,
		interval: interval,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
	}
}

// Run blocks, ticking the monitor until ctx is cancelled. Tick errors other
// than context cancellation are logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.monitor.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopping", "reason", ctx.Err())
				return nil
			}
			s.logger.Error("tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}
