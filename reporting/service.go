// Package reporting exposes read-only views over the admission engine's
// live statistics: per-resource metrics, a hot-resource list, and simple
// threshold alerts. It also re-exports the pub/sub topic onto which
// internal/runtime republishes circuit-breaker transitions. The admission engine
// itself carries no Encore dependency; this service is the thin adapter
// layer spec.md §1 treats as an external collaborator.
package reporting

import (
	"context"
	"time"

	"trafficgov.app/internal/runtime"
)

// Service implements the reporting API.
//encore:service
type Service struct {
	rt *runtime.Runtime
}

var svc *Service

func initService() (*Service, error) {
	rt := runtime.Get()
	s := &Service{rt: rt}
	svc = s
	return s, nil
}

// MetricsResponse is one resource's per-second counters since the last
// fetch.
type MetricsResponse struct {
	Resource string              `json:"resource"`
	Series   map[int64]metricRow `json:"series"`
}

type metricRow struct {
	Pass         int64 `json:"pass"`
	Block        int64 `json:"block"`
	Success      int64 `json:"success"`
	Exception    int64 `json:"exception"`
	Rt           int64 `json:"rt"`
	OccupiedPass int64 `json:"occupied_pass"`
}

// Metrics returns the per-second detail accumulated for resource since
// its last fetch by any caller (the watermark is kept per node).
//
//encore:api public method=GET path=/api/reporting/metrics/:resource
func Metrics(ctx context.Context, resource string) (*MetricsResponse, error) {
	if svc == nil {
		return nil, nil
	}
	nowMs := time.Now().UnixMilli()
	cn := svc.rt.Topology.ClusterNodeFor(resource)
	raw := cn.Stat().Metrics(nowMs)

	series := make(map[int64]metricRow, len(raw))
	for ts, d := range raw {
		series[ts] = metricRow{
			Pass: d.Pass, Block: d.Block, Success: d.Success,
			Exception: d.Exception, Rt: d.Rt, OccupiedPass: d.OccupiedPass,
		}
	}
	return &MetricsResponse{Resource: resource, Series: series}, nil
}

// HotlistResponse ranks resources by live pass_qps.
type HotlistResponse struct {
	Resources []HotResource `json:"resources"`
}

// Hotlist returns the top resources currently taking the most traffic.
//
//encore:api public method=GET path=/api/reporting/hotlist
func Hotlist(ctx context.Context, limit int) (*HotlistResponse, error) {
	if svc == nil {
		return &HotlistResponse{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	nowMs := time.Now().UnixMilli()
	return &HotlistResponse{Resources: topN(svc.rt.Topology, nowMs, limit)}, nil
}

// AlertsResponse lists every alert currently triggered.
type AlertsResponse struct {
	Alerts []Alert `json:"alerts"`
}

// Alerts evaluates the default alert rules against every known resource.
//
//encore:api public method=GET path=/api/reporting/alerts
func Alerts(ctx context.Context) (*AlertsResponse, error) {
	if svc == nil {
		return &AlertsResponse{}, nil
	}
	nowMs := time.Now().UnixMilli()
	return &AlertsResponse{Alerts: evaluateAlerts(svc.rt.Topology, nowMs)}, nil
}

// ListBreakersResponse lists the live state of every configured breaker.
type ListBreakersResponse struct {
	Breakers []BreakerStatus `json:"breakers"`
}

// ListBreakers returns the current state (CLOSED/OPEN/HALF_OPEN) of every
// breaker the runtime has configured, for the spec.md §6 breaker-state
// query surface — unlike audit/service.go's Recent, this reflects live
// state rather than only past transitions.
//
//encore:api public method=GET path=/api/reporting/breakers
func ListBreakers(ctx context.Context) (*ListBreakersResponse, error) {
	if svc == nil {
		return &ListBreakersResponse{}, nil
	}
	return &ListBreakersResponse{Breakers: listBreakers(svc.rt.Breakers)}, nil
}
