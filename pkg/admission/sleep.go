package admission

import (
	"context"
	"time"

	"trafficgov.app/pkg/config"
)

// sleep is the cancellable priority-wait primitive spec.md §9 calls for in
// place of raw thread-interrupt handling: a cancelled context is treated
// as a spurious interrupt and the wait simply ends early, admitting the
// request. It returns the number of milliseconds actually waited.
func sleep(ctx context.Context, cfg config.Config, waitMs int64) int64 {
	if waitMs <= 0 {
		return 0
	}
	timer := time.NewTimer(time.Duration(waitMs) * time.Millisecond)
	defer timer.Stop()

	start := time.Now()
	select {
	case <-timer.C:
		return waitMs
	case <-ctx.Done():
		return time.Since(start).Milliseconds()
	}
}
