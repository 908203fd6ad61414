package flow

import (
	"math"

	"trafficgov.app/pkg/metric"
	"trafficgov.app/pkg/topology"
)

// Decision is the outcome of CanPass.
type Decision int

const (
	// DecisionPass admits the call immediately.
	DecisionPass Decision = iota
	// DecisionBlock rejects the call; the caller must surface a
	// blocked-by-flow error.
	DecisionBlock
	// DecisionPriorityWait admits the call after the caller sleeps for
	// the returned WaitMs.
	DecisionPriorityWait
)

// Result carries a CanPass verdict plus whatever bookkeeping the caller
// must perform.
type Result struct {
	Decision Decision
	WaitMs   int64
	Rule     Rule
}

// Controller evaluates flow rules against the topology.
type Controller struct {
	mgr      *topology.Manager
	provider Provider
	tokens   *ClusterTokenClient
}

// NewController builds a flow controller backed by mgr for node lookups,
// provider for rule retrieval, and tokens for the (optional) cluster-mode
// local fallback.
func NewController(mgr *topology.Manager, provider Provider, tokens *ClusterTokenClient) *Controller {
	return &Controller{mgr: mgr, provider: provider, tokens: tokens}
}

// CanPass implements spec.md §4.F's algorithm for a single entry. now is in
// milliseconds, acquireCount the number of units being acquired (almost
// always 1).
func (c *Controller) CanPass(context, resource, origin string, acquireCount int64, now int64) Result {
	rules := c.provider.RulesFor(resource)

	isNamedOrigin := origin != "" && origin != LimitAppDefault && origin != LimitAppOther
	hasSpecificRule := false
	if isNamedOrigin {
		for _, rule := range rules {
			if rule.LimitApp == origin {
				hasSpecificRule = true
				break
			}
		}
	}

	for _, rule := range rules {
		if rule.LimitApp == LimitAppOther && hasSpecificRule {
			// A more specific limit_app rule already names this origin;
			// the "other" catch-all only applies to origins no specific
			// rule covers.
			continue
		}
		if r, matched := c.evalRule(context, resource, origin, rule, acquireCount, now); matched {
			if r.Decision != DecisionPass {
				return r
			}
		}
	}
	return Result{Decision: DecisionPass}
}

func (c *Controller) evalRule(context, resource, origin string, rule Rule, acquireCount, now int64) (Result, bool) {
	node := selectNode(c.mgr, context, resource, origin, rule)
	if node == nil {
		return Result{}, false
	}

	threshold := rule.Count
	if rule.ClusterMode && c.tokens != nil {
		if !c.tokens.Allow(resource, threshold, acquireCount) {
			return Result{Decision: DecisionBlock, Rule: rule}, true
		}
		return Result{Decision: DecisionPass, Rule: rule}, true
	}

	var cur int64
	if rule.Grade == GradeThread {
		cur = int64(node.Stat().CurThreadNum())
	} else {
		cur = int64(math.Floor(node.PassQPS(now)))
	}

	if cur+acquireCount <= int64(threshold) {
		return Result{Decision: DecisionPass, Rule: rule}, true
	}

	if !rule.Prioritized || rule.Grade != GradeQPS {
		return Result{Decision: DecisionBlock, Rule: rule}, true
	}

	wait := node.Stat().TryOccupyNext(now, acquireCount, threshold)
	if wait >= metric.OccupyTimeout {
		return Result{Decision: DecisionBlock, Rule: rule}, true
	}

	node.Stat().AddWaitingRequest(now+wait, acquireCount)
	node.Stat().AddOccupiedPass(now, acquireCount)
	return Result{Decision: DecisionPriorityWait, WaitMs: wait, Rule: rule}, true
}
