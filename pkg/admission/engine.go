package admission

import (
	"context"

	"trafficgov.app/pkg/breaker"
	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/flow"
	"trafficgov.app/pkg/metric"
	"trafficgov.app/pkg/telemetry"
	"trafficgov.app/pkg/topology"
)

// Engine ties the flow controller, circuit breakers, and invocation
// topology into the single enter/exit pipeline of spec.md §4.H.
type Engine struct {
	cfg      config.Config
	topo     *topology.Manager
	flowCtl  *flow.Controller
	breakers *breaker.Manager
	logger   *telemetry.Logger
}

// NewEngine wires an admission engine from its collaborators. Each of
// flowCtl/breakers/logger is otherwise usable standalone; Engine only
// orchestrates their call order. logger may be nil, in which case no
// decision is logged — every block decision is logged at the point it
// happens whenever a logger is supplied, per spec.md §9's observability
// contract.
func NewEngine(cfg config.Config, topo *topology.Manager, flowCtl *flow.Controller, breakers *breaker.Manager, logger *telemetry.Logger) *Engine {
	return &Engine{cfg: cfg, topo: topo, flowCtl: flowCtl, breakers: breakers, logger: logger}
}

// Enter admits or rejects one call, per spec.md §4.H: flow is consulted
// before circuit breakers; a priority-wait verdict is resolved (including
// the caller's sleep) before Enter returns, so callers never need to
// inspect a separate wait signal. waitedMs reports how long Enter slept
// for a priority-wait admission, for callers that want to record it.
func (e *Engine) Enter(ctx context.Context, callContext, resource, origin string, count int64, nowMs int64) (entry *Entry, waitedMs int64, err error) {
	result := e.flowCtl.CanPass(callContext, resource, origin, count, nowMs)
	switch result.Decision {
	case flow.DecisionBlock:
		e.bookBlock(callContext, resource, origin, count, nowMs)
		if e.logger != nil {
			e.logger.BlockedByFlow("", callContext, resource, origin, result.Rule.Resource, result.Rule.LimitApp)
		}
		return nil, 0, &BlockedByFlowError{Rule: result.Rule.Resource, LimitApp: result.Rule.LimitApp}
	case flow.DecisionPriorityWait:
		waitedMs = sleep(ctx, e.cfg, result.WaitMs)
	}

	occupied := result.Decision == flow.DecisionPriorityWait
	admitMs := nowMs + waitedMs

	for _, b := range e.breakers.BreakersFor(resource) {
		if !b.TryPass(admitMs) {
			e.bookBlock(callContext, resource, origin, count, nowMs)
			if e.logger != nil {
				e.logger.BlockedByDegrade("", callContext, resource, origin)
			}
			return nil, waitedMs, &BlockedByDegradeError{Resource: resource}
		}
	}

	en := newEntry(callContext, resource, origin, count, admitMs)
	en.occupiedPass = occupied

	e.forEachStat(callContext, resource, origin, func(s *metric.Node) {
		s.IncreaseThreadNum()
		if !occupied {
			s.AddPass(admitMs, count)
		}
	})

	if e.logger != nil {
		if occupied {
			e.logger.PriorityWait(en.ID.String(), callContext, resource, origin, waitedMs)
		} else {
			e.logger.Pass(en.ID.String(), callContext, resource, origin)
		}
	}

	return en, waitedMs, nil
}

// Exit completes an entry, booking response time / success / exception
// counters and driving any circuit breakers bound to the resource, per
// spec.md §4.H. nowMs is the completion instant.
func (e *Engine) Exit(entry *Entry, nowMs int64) {
	if entry == nil {
		return
	}

	rt := nowMs - entry.CreateMs
	appErr := entry.Error()
	downstreamBlock := IsBlocked(appErr)

	e.forEachStat(entry.Context, entry.Resource, entry.Origin, func(s *metric.Node) {
		s.DecreaseThreadNum()
		s.AddSuccess(nowMs, entry.Count, e.cfg.ClampRt(rt))
		if appErr != nil && !downstreamBlock {
			s.AddException(nowMs, entry.Count)
		}
	})

	if e.logger != nil && appErr != nil && !downstreamBlock {
		e.logger.Exception(entry.ID.String(), entry.Context, entry.Resource, entry.Origin)
	}

	for _, b := range e.breakers.BreakersFor(entry.Resource) {
		if downstreamBlock && b.State() == breaker.HalfOpen {
			b.OnProbeBlockedDownstream(nowMs)
			continue
		}
		b.OnRequestComplete(nowMs, appErr != nil && !downstreamBlock, rt)
	}
}

// bookBlock increments block counters on the current, origin, and global
// nodes for a rejected entry — it runs before any Entry is allocated,
// since a blocked call never gets one.
func (e *Engine) bookBlock(callContext, resource, origin string, count, nowMs int64) {
	e.forEachStat(callContext, resource, origin, func(s *metric.Node) {
		s.AddBlock(nowMs, count)
	})
}

// forEachStat applies fn to the current (context,resource) node's stat,
// the resource's cluster node (shared across contexts), the calling
// origin's stat (if origin is named), and the process-wide inbound
// aggregate, mirroring spec.md §4.H's "(and origin + global)" fan-out
// performed on every enter/exit/block.
func (e *Engine) forEachStat(callContext, resource, origin string, fn func(s *metric.Node)) {
	fn(e.topo.DefaultNodeFor(callContext, resource).Stat())
	fn(e.topo.ClusterNodeFor(resource).Stat())
	if origin != "" {
		fn(e.topo.ClusterNodeFor(resource).OriginFor(origin, e.cfg).Stat())
	}
	fn(e.topo.GlobalIn().Stat())
}
