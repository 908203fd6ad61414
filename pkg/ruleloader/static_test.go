package ruleloader

import (
	"testing"

	"trafficgov.app/pkg/breaker"
	"trafficgov.app/pkg/flow"
)

func TestStatic_ExactMatchWinsOverPattern(t *testing.T) {
	s := NewStatic()
	s.Set("order:*", []flow.Rule{{Resource: "order:*", Count: 1}})
	s.Set("order:create", []flow.Rule{{Resource: "order:create", Count: 99}})

	got := s.RulesFor("order:create")
	if len(got) != 1 || got[0].Count != 99 {
		t.Fatalf("RulesFor(order:create) = %v, want the exact-match rule (Count=99)", got)
	}
}

func TestStatic_FallsBackToPatternWhenNoExactMatch(t *testing.T) {
	s := NewStatic()
	s.Set("order:*", []flow.Rule{{Resource: "order:*", Count: 1}})

	got := s.RulesFor("order:refund")
	if len(got) != 1 || got[0].Count != 1 {
		t.Fatalf("RulesFor(order:refund) = %v, want the pattern-scoped rule", got)
	}
}

func TestStatic_NoMatchReturnsNil(t *testing.T) {
	s := NewStatic()
	s.Set("order:*", []flow.Rule{{Resource: "order:*", Count: 1}})

	if got := s.RulesFor("carts:create"); len(got) != 0 {
		t.Fatalf("RulesFor(carts:create) = %v, want none", got)
	}
}

func TestStaticDegrade_FallsBackToPatternWhenNoExactMatch(t *testing.T) {
	s := NewStaticDegrade()
	s.Set("order:*", []breaker.Rule{{Resource: "order:*", Count: 0.5}})

	got := s.RulesFor("order:refund")
	if len(got) != 1 || got[0].Count != 0.5 {
		t.Fatalf("RulesFor(order:refund) = %v, want the pattern-scoped degrade rule", got)
	}
}
