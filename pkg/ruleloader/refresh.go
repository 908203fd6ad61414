package ruleloader

import (
	"context"

	"golang.org/x/sync/singleflight"

	"trafficgov.app/pkg/flow"
)

// Fetcher retrieves the full rule set from whatever external source a
// deployment wires in (remote rule distribution is out of scope per
// spec.md §1 — only this callback boundary is specified).
type Fetcher func(ctx context.Context) (map[string][]flow.Rule, error)

// Refreshing is a flow.Provider that periodically re-fetches its rule set
// via Fetcher, coalescing concurrent Refresh calls with singleflight so a
// burst of callers (a cron tick racing a manual trigger) only ever drives
// one real fetch.
type Refreshing struct {
	fetch Fetcher
	group singleflight.Group

	live *Static
}

// NewRefreshing builds a refreshing provider around fetch. It starts
// empty; call Refresh once before serving traffic, and again on each
// scheduled tick.
func NewRefreshing(fetch Fetcher) *Refreshing {
	return &Refreshing{fetch: fetch, live: NewStatic()}
}

// Refresh re-fetches the full rule set and installs each fetched
// resource's rules in turn. The install is not atomic: a concurrent
// RulesFor may see some resources updated and others not yet, and a
// resource absent from the fetch keeps the rules it had before.
// Concurrent callers share one in-flight fetch.
func (r *Refreshing) Refresh(ctx context.Context) error {
	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		rules, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		for resource, rs := range rules {
			r.live.Set(resource, rs)
		}
		return nil, nil
	})
	return err
}

// RulesFor implements flow.Provider.
func (r *Refreshing) RulesFor(resource string) []flow.Rule {
	return r.live.RulesFor(resource)
}
