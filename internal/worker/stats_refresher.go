package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/service"
)

// StatsRefresher recomputes the stats snapshot on a fixed cadence so that
// interactive readers rarely pay the regeneration cost. A zero interval
// disables it and leaves regeneration fully lazy.
type StatsRefresher struct {
	stats    *service.StatsService
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewStatsRefresher constructs the refresher.
func NewStatsRefresher(stats *service.StatsService, interval time.Duration, logger *zap.Logger) *StatsRefresher {
	return &StatsRefresher{
		stats:    stats,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (w *StatsRefresher) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("stats refresher disabled")
		close(w.done)
		return
	}

	go w.run(ctx)
}

// Wait blocks until the loop has exited.
func (w *StatsRefresher) Wait() {
	<-w.done
}

func (w *StatsRefresher) run(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("stats refresher started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats refresher stopped")
			return
		case <-ticker.C:
			if _, err := w.stats.ForceRefresh(ctx); err != nil {
				w.logger.Warn("scheduled stats refresh failed", zap.Error(err))
			}
		}
	}
}
