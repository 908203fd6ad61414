package flow

import (
	"testing"

	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/topology"
)

func TestSelectNode_DefaultDirect(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "GET /orders", Strategy: StrategyDirect, LimitApp: LimitAppDefault}

	got := selectNode(mgr, "ctx", "GET /orders", "", rule)
	want := mgr.ClusterNodeFor("GET /orders")
	if got != want {
		t.Fatalf("expected default/direct to select the resource's cluster node")
	}
}

func TestSelectNode_DefaultRelate(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "GET /orders", Strategy: StrategyRelate, RefResource: "db-pool", LimitApp: LimitAppDefault}

	got := selectNode(mgr, "ctx", "GET /orders", "", rule)
	want := mgr.ClusterNodeFor("db-pool")
	if got != want {
		t.Fatalf("expected default/relate to select RefResource's cluster node")
	}
}

func TestSelectNode_DefaultChainMatchesEnteringContext(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "db-pool", Strategy: StrategyChain, RefResource: "ctx", LimitApp: LimitAppDefault}

	got := selectNode(mgr, "ctx", "db-pool", "", rule)
	want := mgr.DefaultNodeFor("ctx", "db-pool")
	if got != want {
		t.Fatalf("expected default/chain to select the (context, resource) default node when RefResource matches context")
	}
}

func TestSelectNode_DefaultChainNoMatchReturnsNil(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "db-pool", Strategy: StrategyChain, RefResource: "some-other-ctx", LimitApp: LimitAppDefault}

	if got := selectNode(mgr, "ctx", "db-pool", "", rule); got != nil {
		t.Fatalf("expected chain rule with mismatched RefResource to select nil")
	}
}

func TestSelectNode_SpecificOriginOnlyAppliesToItsOwnOrigin(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "GET /orders", Strategy: StrategyDirect, LimitApp: "svc-a"}

	if got := selectNode(mgr, "ctx", "GET /orders", "svc-b", rule); got != nil {
		t.Fatalf("expected a specific limit_app rule to select nil for a non-matching origin")
	}

	got := selectNode(mgr, "ctx", "GET /orders", "svc-a", rule)
	want := mgr.ClusterNodeFor("GET /orders").OriginFor("svc-a", mgr.Config())
	if got != want {
		t.Fatalf("expected a specific limit_app rule to select the matching origin node")
	}
}

func TestSelectNode_OtherAppliesToAnyOrigin(t *testing.T) {
	mgr := topology.NewManager(config.DefaultConfig())
	rule := Rule{Resource: "GET /orders", LimitApp: LimitAppOther}

	got := selectNode(mgr, "ctx", "GET /orders", "svc-unknown", rule)
	want := mgr.ClusterNodeFor("GET /orders").OriginFor("svc-unknown", mgr.Config())
	if got != want {
		t.Fatalf("expected an 'other' rule to select the calling origin's node")
	}
}
