package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cleaner deletes expired sessions and verification tokens older than
// tokenRetention.
type Cleaner interface {
	CleanupExpired(ctx context.Context, tokenRetention time.Duration) (sessions, tokens int64, err error)
}

type SweepConfig struct {
	Interval       time.Duration
	Timeout        time.Duration
	TokenRetention time.Duration
}

// StartSessionSweeper runs the cleanup on every tick until ctx is done.
// A zero interval disables the job.
func StartSessionSweeper(ctx context.Context, cfg SweepConfig, cleaner Cleaner, log logrus.FieldLogger) {
	if cfg.Interval <= 0 {
		log.Info("session sweeper disabled")
		return
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenRetention <= 0 {
		cfg.TokenRetention = 7 * 24 * time.Hour
	}

	ticker := time.NewTicker(cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, cfg, cleaner, log)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, cfg SweepConfig, cleaner Cleaner, log logrus.FieldLogger) {
	tickCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sessions, tokens, err := cleaner.CleanupExpired(tickCtx, cfg.TokenRetention)
	if err != nil {
		log.WithError(err).Error("session sweep failed")
		return
	}
	if sessions > 0 || tokens > 0 {
		log.WithFields(logrus.Fields{"sessions": sessions, "tokens": tokens}).Info("session sweep removed rows")
	}
}
