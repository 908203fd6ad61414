// Package audit is an optional, independently deployable sink for
// admission decisions. It owns its own Postgres handle and subscribes to
// the breaker-state-change topic rather than being wired as a direct
// breaker.Observer, so the admission engine never depends on it being
// present — the same decoupling the caching system uses between its
// invalidation audit log and the services that trigger invalidations.
package audit

import (
	"context"
	"fmt"

	"encore.dev/pubsub"
	"encore.dev/storage/sqldb"

	"trafficgov.app/internal/runtime"
	pkgaudit "trafficgov.app/pkg/audit"
)

//encore:service
type Service struct {
	logger *pkgaudit.Logger
}

var db = sqldb.Named("audit_db")

var svc *Service

func initService() (*Service, error) {
	logger, err := pkgaudit.NewLogger(db)
	if err != nil {
		return nil, fmt.Errorf("audit: init logger: %w", err)
	}
	svc = &Service{logger: logger}
	return svc, nil
}

// Subscribe to breaker state transitions published by internal/runtime and
// persist each one. Kept as a subscription (rather than registering this
// service as a breaker.Observer directly) so the core admission engine has
// zero import-time dependency on Postgres or Encore.
var _ = pubsub.NewSubscription(
	runtime.BreakerStateTopic,
	"audit-breaker-transitions",
	pubsub.SubscriptionConfig[*runtime.StateChangeEvent]{
		Handler: HandleStateChange,
	},
)

// HandleStateChange persists one breaker transition event.
func HandleStateChange(ctx context.Context, event *runtime.StateChangeEvent) error {
	if svc == nil {
		return nil
	}
	return svc.logger.Insert(ctx, pkgaudit.DecisionLog{
		Resource:  event.Resource,
		Kind:      "breaker_transition",
		Detail:    fmt.Sprintf("%s -> %s (snapshot=%.4f)", event.Prev, event.Next, event.Snapshot),
		Timestamp: event.Timestamp,
	})
}

// RecentRequest/RecentResponse back the read API below.
type RecentRequest struct {
	Limit    int    `query:"limit"`
	Resource string `query:"resource"`
}

type RecentResponse struct {
	Entries []pkgaudit.DecisionLog `json:"entries"`
}

// Recent returns the most recent persisted decision log entries.
//
//encore:api public method=GET path=/api/audit/recent
func Recent(ctx context.Context, req *RecentRequest) (*RecentResponse, error) {
	if svc == nil {
		return &RecentResponse{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := svc.logger.Recent(ctx, limit, req.Resource)
	if err != nil {
		return nil, err
	}
	return &RecentResponse{Entries: entries}, nil
}
