package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/metrics"
	"github.com/hamed0406/uptimatum/internal/repo"
)

const DefaultDays = 30

// Sweeper deletes check history older than the retention horizon.
type Sweeper struct {
	Store  repo.CheckStore
	Days   int
	Logger *zap.Logger
	Now    func() time.Time
}

func NewSweeper(store repo.CheckStore, days int, logger *zap.Logger) *Sweeper {
	if days <= 0 {
		days = DefaultDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{Store: store, Days: days, Logger: logger, Now: time.Now}
}

// Cutoff is the oldest timestamp a record may carry and survive a sweep.
func (s *Sweeper) Cutoff() time.Time {
	return s.Now().UTC().AddDate(0, 0, -s.Days)
}

// Sweep runs one bulk delete. Failures are returned to the caller, which
// logs them; the next scheduled sweep catches whatever was missed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.Cutoff()
	n, err := s.Store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	metrics.RetentionDeleted.Add(float64(n))
	s.Logger.Info("retention_sweep",
		zap.Int("retention_days", s.Days),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", n),
	)
	return n, nil
}
