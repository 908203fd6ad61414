package breaker

import "testing"

func TestManager_ConfigureReplacesPriorBreakerSet(t *testing.T) {
	m := NewManager(nil)

	m.Configure("GET /orders", []Rule{exceptionCountRule()})
	first := m.BreakersFor("GET /orders")
	if len(first) != 1 {
		t.Fatalf("expected exactly one breaker after first Configure, got %d", len(first))
	}

	m.Configure("GET /orders", []Rule{exceptionCountRule(), exceptionCountRule()})
	second := m.BreakersFor("GET /orders")
	if len(second) != 2 {
		t.Fatalf("expected two breakers after reconfiguration, got %d", len(second))
	}
	if second[0] == first[0] {
		t.Fatalf("expected Configure to replace, not reuse, the prior breaker instances")
	}
}

func TestManager_BreakersForUnknownResourceIsEmpty(t *testing.T) {
	m := NewManager(nil)
	if got := m.BreakersFor("unknown"); len(got) != 0 {
		t.Fatalf("expected no breakers for an unconfigured resource, got %v", got)
	}
}

func TestManager_ResourcesListsEveryConfiguredResource(t *testing.T) {
	m := NewManager(nil)
	m.Configure("GET /orders", []Rule{exceptionCountRule()})
	m.Configure("GET /carts", []Rule{exceptionCountRule()})

	got := m.Resources()
	if len(got) != 2 {
		t.Fatalf("Resources() = %v, want 2 entries", got)
	}
}

func TestMultiObserver_FansOutToEveryObserver(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	multi := MultiObserver{a, b}

	multi.OnStateChange(exceptionCountRule(), Closed, Open, 3)

	if len(a.transitions) != 1 || len(b.transitions) != 1 {
		t.Fatalf("expected both observers to receive the transition, got a=%v b=%v", a.transitions, b.transitions)
	}
}
