package usecase

import (
	"context"
	"log/slog"
)

// Sweep transitions every overdue ACTIVE code to EXPIRED and returns how many
// rows changed. It is idempotent; running it concurrently with issue or
// verify is safe because all transitions go through the same row statuses.
func (s *Usecase) Sweep(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	count, err := s.repoDB.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		slog.InfoContext(ctx, "swept expired codes", "count", count)
	}

	return count, nil
}
