package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredDeleter is implemented by stores that do not expire rows on their own.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired sessions to bound storage growth.
// Get already hides expired rows, so a missed sweep never affects correctness.
type Sweeper struct {
	Store    ExpiredDeleter
	Interval time.Duration
	Logger   *zap.SugaredLogger
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.Store.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Logger.Infow("expired sessions swept", "count", n)
	}
	return n, nil
}

// Run sweeps every Interval until ctx is done. Sweep failures are logged and
// retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.Logger.Errorw("session sweep failed", "error", err)
			}
		}
	}
}
