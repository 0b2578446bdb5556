package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arkadyv/solkoff-board/internal/platform/logging"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

const defaultRunTimeout = 5 * time.Minute

// Scheduler drives the periodic tournament refresh. Each run is the same
// SyncAll code path the manual refresh endpoint uses, so cadence and
// on-demand refreshes share cache and throttle behavior.
type Scheduler struct {
	cron       *cron.Cron
	sync       *usecase.SyncService
	interval   time.Duration
	runTimeout time.Duration
	logger     *logging.Logger
}

func New(sync *usecase.SyncService, interval time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &Scheduler{
		cron:       cron.New(),
		sync:       sync,
		interval:   interval,
		runTimeout: defaultRunTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.runSync))
	s.cron.Start()
	s.logger.Info("sync scheduler started", "interval", s.interval.String())
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sync scheduler stopped")
}

// RunNow triggers one synchronous run outside the cadence.
func (s *Scheduler) RunNow() {
	s.runSync()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	summary, err := s.sync.SyncAll(ctx)
	if err != nil {
		// Auth and quota failures are operator-actionable; keep them
		// distinguishable from transient provider noise.
		switch {
		case errors.Is(err, usecase.ErrUnauthorized):
			s.logger.ErrorContext(ctx, "scheduled sync rejected by provider, check API token", "error", err)
		case errors.Is(err, usecase.ErrRateLimited):
			s.logger.WarnContext(ctx, "scheduled sync hit provider rate limit, will retry next interval", "error", err)
		default:
			s.logger.ErrorContext(ctx, "scheduled sync failed", "error", err)
		}
		return
	}

	s.logger.InfoContext(ctx, "scheduled sync completed",
		"teams", summary.Teams,
		"matches", summary.Matches,
		"standings", summary.Standings,
		"duration_ms", summary.Duration.Milliseconds(),
	)
}
