package flow

import (
	"testing"

	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/topology"
)

type staticRules map[string][]Rule

func (s staticRules) RulesFor(resource string) []Rule { return s[resource] }

func TestController_CanPassAdmitsUnderThreshold(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {{Resource: "GET /orders", Grade: GradeQPS, Count: 10, Strategy: StrategyDirect, LimitApp: LimitAppDefault}},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	result := c.CanPass("ctx", "GET /orders", "", 1, 1000)
	if result.Decision != DecisionPass {
		t.Fatalf("Decision = %v, want DecisionPass", result.Decision)
	}
}

func TestController_CanPassBlocksOverThresholdWithoutPriority(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {{Resource: "GET /orders", Grade: GradeQPS, Count: 1, Strategy: StrategyDirect, LimitApp: LimitAppDefault}},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	node := mgr.ClusterNodeFor("GET /orders")
	node.Stat().AddPass(1000, 1) // already at threshold

	result := c.CanPass("ctx", "GET /orders", "", 1, 1000)
	if result.Decision != DecisionBlock {
		t.Fatalf("Decision = %v, want DecisionBlock", result.Decision)
	}
}

func TestController_CanPassGrantsPriorityWaitAndBooksBorrow(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {{Resource: "GET /orders", Grade: GradeQPS, Count: 1, Strategy: StrategyDirect, LimitApp: LimitAppDefault, Prioritized: true}},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	node := mgr.ClusterNodeFor("GET /orders")
	node.Stat().AddPass(100, 1) // fills the [0,500) bucket, due to roll off at t=1000

	result := c.CanPass("ctx", "GET /orders", "", 1, 600)
	if result.Decision != DecisionPriorityWait {
		t.Fatalf("Decision = %v, want DecisionPriorityWait", result.Decision)
	}
	if result.WaitMs != 400 {
		t.Fatalf("WaitMs = %d, want 400", result.WaitMs)
	}
	if node.Stat().CurrentWaiting(600) == 0 {
		t.Fatalf("expected the priority-wait grant to book a borrow-ring entry")
	}
}

func TestController_CanPassThreadGrade(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {{Resource: "GET /orders", Grade: GradeThread, Count: 1, Strategy: StrategyDirect, LimitApp: LimitAppDefault}},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	node := mgr.ClusterNodeFor("GET /orders")
	node.Stat().IncreaseThreadNum()

	result := c.CanPass("ctx", "GET /orders", "", 1, 1000)
	if result.Decision != DecisionBlock {
		t.Fatalf("Decision = %v, want DecisionBlock once in-flight threads reach the threshold", result.Decision)
	}
}

func TestController_CanPassSkipsOtherRuleWhenASpecificOriginRuleExists(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {
			{Resource: "GET /orders", Grade: GradeQPS, Count: 10, Strategy: StrategyDirect, LimitApp: "svc-a"},
			{Resource: "GET /orders", Grade: GradeQPS, Count: 0, Strategy: StrategyDirect, LimitApp: LimitAppOther},
		},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	result := c.CanPass("ctx", "GET /orders", "svc-a", 1, 1000)
	if result.Decision != DecisionPass {
		t.Fatalf("Decision = %v, want DecisionPass: the zero-threshold \"other\" rule must not apply to an origin a specific rule already covers", result.Decision)
	}
}

func TestController_CanPassAppliesOtherRuleWhenNoSpecificRuleCoversTheOrigin(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {
			{Resource: "GET /orders", Grade: GradeQPS, Count: 10, Strategy: StrategyDirect, LimitApp: "svc-a"},
			{Resource: "GET /orders", Grade: GradeQPS, Count: 0, Strategy: StrategyDirect, LimitApp: LimitAppOther},
		},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	result := c.CanPass("ctx", "GET /orders", "svc-b", 1, 1000)
	if result.Decision != DecisionBlock {
		t.Fatalf("Decision = %v, want DecisionBlock: svc-b has no specific rule, so the \"other\" rule must apply", result.Decision)
	}
}

func TestController_CanPassClusterModeFallsBackToLocalTokenBucket(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	provider := staticRules{
		"GET /orders": {{Resource: "GET /orders", Grade: GradeQPS, Count: 1, Strategy: StrategyDirect, LimitApp: LimitAppDefault, ClusterMode: true}},
	}
	c := NewController(mgr, provider, NewClusterTokenClient())

	// acquiring far more than the burst a qps=1 limiter can ever grant in a
	// single call must be rejected outright, regardless of timing.
	result := c.CanPass("ctx", "GET /orders", "", 50, 1000)
	if result.Decision != DecisionBlock {
		t.Fatalf("Decision = %v, want DecisionBlock when acquireCount exceeds the limiter's burst", result.Decision)
	}
}
