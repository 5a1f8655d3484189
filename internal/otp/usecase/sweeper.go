package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikstrim/otpgate/internal/pkg/goroutine"
)

// Sweeper expires overdue codes in the background on a fixed interval.
//
// Each run gets its own deadline so a slow database cannot wedge the loop; a
// failed run is logged and retried on the next tick.
type Sweeper struct {
	uc       *Usecase
	manager  *goroutine.Manager
	interval time.Duration
	timeout  time.Duration
}

func NewSweeper(uc *Usecase, manager *goroutine.Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Sweeper{
		uc:       uc,
		manager:  manager,
		interval: interval,
		timeout:  30 * time.Second,
	}
}

// Start launches the sweep loop through the goroutine manager. The loop exits
// when the application context is canceled; waiting happens through the
// manager.
func (s *Sweeper) Start(ctx context.Context) {
	s.manager.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.run(ctx)
			}
		}
	})
}

func (s *Sweeper) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.uc.Sweep(runCtx); err != nil {
		slog.ErrorContext(runCtx, "sweep run failed", "error", err)
	}
}
