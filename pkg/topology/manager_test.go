package topology

import (
	"testing"

	"trafficgov.app/pkg/config"
)

func testConfig() config.Config { return config.DefaultConfig() }

func TestManager_ClusterNodeForIsSharedAcrossContexts(t *testing.T) {
	m := NewManager(testConfig())

	a := m.ClusterNodeFor("GET /orders")
	b := m.ClusterNodeFor("GET /orders")
	if a != b {
		t.Fatalf("expected the same cluster node for a repeated resource name")
	}

	other := m.ClusterNodeFor("GET /carts")
	if a == other {
		t.Fatalf("expected distinct cluster nodes for distinct resources")
	}
}

func TestManager_DefaultNodeForAttachesUnderEntrance(t *testing.T) {
	m := NewManager(testConfig())

	d1 := m.DefaultNodeFor("ctxA", "GET /orders")
	d2 := m.DefaultNodeFor("ctxA", "GET /orders")
	if d1 != d2 {
		t.Fatalf("expected DefaultNodeFor to be idempotent for the same (context, resource)")
	}

	entrance := m.EntranceNodeFor("ctxA")
	children := entrance.Root().Children()
	if len(children) != 1 || children[0] != d1 {
		t.Fatalf("expected the default node to be attached exactly once under its entrance")
	}
}

// Entrance aggregation: pass_qps sums children, avg_rt is the pass_qps
// weighted mean — spec scenario 6.
func TestEntranceNode_AggregatesChildren(t *testing.T) {
	m := NewManager(testConfig())

	a := m.DefaultNodeFor("ctx", "resA")
	b := m.DefaultNodeFor("ctx", "resB")

	a.Stat().AddPass(100, 8)
	a.Stat().AddSuccess(100, 8, 100) // avg_rt = 100

	b.Stat().AddPass(100, 2)
	b.Stat().AddSuccess(100, 2, 500) // avg_rt = 500

	entrance := m.EntranceNodeFor("ctx")

	gotQPS := entrance.PassQPS(900)
	wantQPS := a.PassQPS(900) + b.PassQPS(900)
	if gotQPS != wantQPS {
		t.Fatalf("PassQPS = %v, want sum of children %v", gotQPS, wantQPS)
	}

	gotRT := entrance.AvgRT(900)
	wA, wB := a.PassQPS(900), b.PassQPS(900)
	wantRT := (wA*a.AvgRT(900) + wB*b.AvgRT(900)) / (wA + wB)
	if gotRT != wantRT {
		t.Fatalf("AvgRT = %v, want weighted mean %v", gotRT, wantRT)
	}
}

func TestEntranceNode_AvgRTZeroWithNoChildren(t *testing.T) {
	m := NewManager(testConfig())
	entrance := m.EntranceNodeFor("emptyCtx")

	if got := entrance.AvgRT(1000); got != 0 {
		t.Fatalf("AvgRT with no children = %v, want 0", got)
	}
}

func TestClusterNode_OriginForIsPerOrigin(t *testing.T) {
	cn := NewClusterNode("GET /orders", testConfig())

	o1 := cn.OriginFor("svc-a", testConfig())
	o2 := cn.OriginFor("svc-a", testConfig())
	if o1 != o2 {
		t.Fatalf("expected OriginFor to be idempotent per origin")
	}

	o3 := cn.OriginFor("svc-b", testConfig())
	if o1 == o3 {
		t.Fatalf("expected distinct origin nodes for distinct origins")
	}
}
