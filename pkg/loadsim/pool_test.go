package loadsim

import (
	"testing"

	"trafficgov.app/pkg/admission"
	"trafficgov.app/pkg/breaker"
	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/flow"
	"trafficgov.app/pkg/topology"
)

type emptyRules struct{}

func (emptyRules) RulesFor(string) []flow.Rule { return nil }

func newTestEngine() *admission.Engine {
	cfg := config.DefaultConfig()
	topo := topology.NewManager(cfg)
	flowCtl := flow.NewController(topo, emptyRules{}, flow.NewClusterTokenClient())
	breakers := breaker.NewManager(nil)
	return admission.NewEngine(cfg, topo, flowCtl, breakers, nil)
}

func TestPool_DrivesCallsAndCountsOutcomes(t *testing.T) {
	engine := newTestEngine()
	pool := NewPool(engine, 4)

	for i := 0; i < 20; i++ {
		pool.Submit(Call{Context: "ctx", Resource: "GET /orders", Count: 1})
	}
	pool.Close()

	if pool.Passed() != 20 {
		t.Fatalf("Passed() = %d, want 20 with no flow rules configured", pool.Passed())
	}
	if pool.Blocked() != 0 {
		t.Fatalf("Blocked() = %d, want 0", pool.Blocked())
	}
}

func TestPool_RecordsApplicationFailuresWithoutBlocking(t *testing.T) {
	engine := newTestEngine()
	pool := NewPool(engine, 2)

	pool.Submit(Call{Context: "ctx", Resource: "GET /orders", Count: 1, Fail: true})
	pool.Close()

	if pool.Passed() != 1 {
		t.Fatalf("Passed() = %d, want 1 (a recorded application failure still passes admission)", pool.Passed())
	}
}
