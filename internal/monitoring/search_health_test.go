package monitoring

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type flakyChecker struct {
	healthy atomic.Bool
}

func (f *flakyChecker) IsHealthy(context.Context) bool {
	return f.healthy.Load()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMonitorTracksHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := &flakyChecker{}
	checker.healthy.Store(true)
	healthy := &atomic.Bool{}

	done := make(chan struct{})
	go func() {
		monitor(ctx, checker, healthy, 10*time.Millisecond)
		close(done)
	}()

	waitFor(t, healthy.Load)

	checker.healthy.Store(false)
	waitFor(t, func() bool { return !healthy.Load() })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
