package service

import (
	"context"
	"time"

	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// PushScheduler pushes the full local snapshot to the remote authority
// on a fixed interval. Pushes are fire-and-forget; a failed cycle is
// logged and the next tick tries again with whatever the snapshot looks
// like then.
type PushScheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewPushScheduler creates a new push scheduler
func NewPushScheduler(engine *Engine, interval time.Duration, log *logger.Logger) *PushScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PushScheduler{
		engine:   engine,
		interval: interval,
		logger:   log.WithComponent("push-scheduler"),
	}
}

// Start starts the scheduler in a background goroutine
func (s *PushScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("push scheduler started")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("push scheduler stopped")
				return
			case <-ticker.C:
				s.runPushCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *PushScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *PushScheduler) runPushCycle(ctx context.Context) {
	start := time.Now()
	result := s.engine.ForceSyncToBackend(ctx)
	if !result.Success {
		s.logger.Warn().
			Str("reason", result.Message).
			Dur("duration", time.Since(start)).
			Msg("periodic push failed, will retry next cycle")
		return
	}

	s.logger.Info().
		Int("employees", result.Synced.Employees).
		Int("attendance", result.Synced.Attendance).
		Dur("duration", time.Since(start)).
		Msg("periodic push completed")
}
