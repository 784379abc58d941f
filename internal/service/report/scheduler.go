package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/lock"
)

// SystemActorID is recorded as the generator of scheduled closes.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type generator interface {
	GenerateReports(ctx context.Context, p domain.Period, actor uuid.UUID) (*Result, error)
}

type locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (lock.Handle, bool, error)
}

// Scheduler periodically refreshes the previous and the current month so
// dashboards see up to date snapshots. Only one replica runs a given close.
type Scheduler struct {
	closer   generator
	locker   locker
	logger   *slog.Logger
	interval time.Duration
	lockTTL  time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewScheduler(closer generator, locker locker, logger *slog.Logger, interval, lockTTL time.Duration, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		closer:   closer,
		locker:   locker,
		logger:   logger,
		interval: interval,
		lockTTL:  lockTTL,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("period close scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("period close scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce closes the previous month, then the current one, so the current
// month opens from a fresh closing balance.
func (s *Scheduler) RunOnce(ctx context.Context) {
	current := domain.PeriodOf(s.now().In(s.loc))
	for _, p := range []domain.Period{current.Prev(), current} {
		if err := s.close(ctx, p); err != nil {
			s.logger.Error("scheduled period close failed", "period", p.String(), "error", err)
		}
	}
}

func (s *Scheduler) close(ctx context.Context, p domain.Period) error {
	h, ok, err := s.locker.TryLock(ctx, "close:"+p.String(), s.lockTTL)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if !ok {
		s.logger.Debug("period close held by another replica", "period", p.String())
		return nil
	}
	defer func() {
		if err := h.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release period close lock", "period", p.String(), "error", err)
		}
	}()

	if _, err := s.closer.GenerateReports(ctx, p, SystemActorID); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
