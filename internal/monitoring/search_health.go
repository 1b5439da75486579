package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// HealthChecker is anything that can report its own health, such as the
// OpenSearch client.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// MonitorSearchHealth polls checker every HEALTHCHECK_TIMER seconds and keeps
// healthy up to date until ctx is done.
func MonitorSearchHealth(ctx context.Context, checker HealthChecker, healthy *atomic.Bool) {
	monitor(ctx, checker, healthy, time.Second*HEALTHCHECK_TIMER)
}

func monitor(ctx context.Context, checker HealthChecker, healthy *atomic.Bool, interval time.Duration) {
	check := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		isHealthy := checker.IsHealthy(checkCtx)
		if wasHealthy := healthy.Swap(isHealthy); wasHealthy != isHealthy {
			if isHealthy {
				slog.Info("[HealthCheck] Search backend recovered")
			} else {
				slog.Warn("[HealthCheck] Search backend is unhealthy")
			}
		}
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
