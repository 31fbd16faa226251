package daemon

import (
	"context"
	"log/slog"
	"time"
)

// SessionPruner drops auth state of idle browser sessions.
type SessionPruner interface {
	Prune(maxIdle time.Duration) int
	Len() int
}

// Sweeper drops expired rate-limit windows.
type Sweeper interface {
	Sweep() int
}

type CleanupOptions struct {
	Interval time.Duration
	MaxIdle  time.Duration
	// Observe receives the number of sessions left after each run.
	Observe func(sessions int)
}

func CleanupTask(sessions SessionPruner, sweepers []Sweeper, opts CleanupOptions, logger *slog.Logger) DaemonFunc {
	return func(ctx context.Context, name string) error {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				removed := sessions.Prune(opts.MaxIdle)
				for _, s := range sweepers {
					s.Sweep()
				}

				remaining := sessions.Len()
				if opts.Observe != nil {
					opts.Observe(remaining)
				}
				if removed > 0 {
					logger.Debug("Pruned idle sessions", "daemon", name, "removed", removed, "remaining", remaining)
				}
			}
		}
	}
}
