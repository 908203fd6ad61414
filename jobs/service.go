// Package jobs schedules the periodic work the admission engine itself
// never does on its own (spec.md §5: "the core has no background threads
// of its own") — currently just the flow-rule refresh cycle, wired via
// Encore cron the same way the caching system schedules its warming
// jobs.
package jobs

import (
	"context"

	"encore.dev/cron"

	"trafficgov.app/internal/runtime"
)

// RefreshRules re-fetches the flow-rule set from whatever Fetcher the
// runtime was wired with (rule loading itself is out of scope per
// spec.md §1; only this refresh cadence belongs to the core's
// surrounding ambient stack).
var _ = cron.NewJob("refresh-flow-rules", cron.JobConfig{
	Title:    "Refresh flow-control rules",
	Schedule: "* * * * *",
	Endpoint: RefreshRules,
})

//encore:api private
func RefreshRules(ctx context.Context) error {
	return runtime.Get().Flow.Refresh(ctx)
}
