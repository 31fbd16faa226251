package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"admindash/internal/analytics"
	"admindash/internal/store"
	"admindash/internal/users"
)

// WarmUpTask loads the users and analytics stores once at startup so the
// first page view does not wait on the data service. A failed fetch leaves
// the error on the store and is not retried.
func WarmUpTask(usersStore *users.Store, analyticsStore *analytics.Store, logger *slog.Logger) DaemonFunc {
	return func(ctx context.Context, name string) error {
		if err := usersStore.Fetch(ctx); err != nil && !errors.Is(err, store.ErrSuperseded) {
			logger.Warn("Warm-up fetch failed", "daemon", name, "store", "users", "error", err)
		}

		query := analyticsStore.Snapshot().Query()
		if err := analyticsStore.Fetch(ctx, query); err != nil && !errors.Is(err, store.ErrSuperseded) {
			logger.Warn("Warm-up fetch failed", "daemon", name, "store", "analytics", "error", err)
		}
		return nil
	}
}

// AnalyticsRefreshTask refetches analytics with the store's current query on
// every tick.
func AnalyticsRefreshTask(analyticsStore *analytics.Store, interval time.Duration, logger *slog.Logger) DaemonFunc {
	return func(ctx context.Context, name string) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				query := analyticsStore.Snapshot().Query()
				if err := analyticsStore.Fetch(ctx, query); err != nil && !errors.Is(err, store.ErrSuperseded) {
					logger.Warn("Scheduled analytics refresh failed", "daemon", name, "error", err)
				}
			}
		}
	}
}
