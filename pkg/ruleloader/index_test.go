package ruleloader

import "testing"

func TestMatchResource_ExactAndWildcard(t *testing.T) {
	cases := []struct {
		pattern, resource string
		want              bool
	}{
		{"orders.create", "orders.create", true},
		{"orders.create", "orders.cancel", false},
		{"*", "anything", true},
		{"orders.*", "orders.create", true},
		{"orders.*", "carts.create", false},
		{"order.?.refund", "order.1.refund", true},
		{"order.?.refund", "order.12.refund", false},
	}
	for _, c := range cases {
		got, err := MatchResource(c.pattern, c.resource)
		if err != nil {
			t.Fatalf("MatchResource(%q, %q) error: %v", c.pattern, c.resource, err)
		}
		if got != c.want {
			t.Fatalf("MatchResource(%q, %q) = %v, want %v", c.pattern, c.resource, got, c.want)
		}
	}
}

func TestMatchResource_EmptyPatternErrors(t *testing.T) {
	if _, err := MatchResource("", "orders.create"); err == nil {
		t.Fatalf("expected an error for an empty pattern")
	}
}

func TestIndex_LookupConcatenatesMatchingPatternsInInsertionOrder(t *testing.T) {
	idx := NewIndex[string]()
	idx.Set("orders.*", []string{"a", "b"})
	idx.Set("*", []string{"c"})

	got := idx.Lookup("orders.create")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Lookup = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Lookup[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIndex_SetReplacesSamePattern(t *testing.T) {
	idx := NewIndex[string]()
	idx.Set("orders.*", []string{"a"})
	idx.Set("orders.*", []string{"b"})

	got := idx.Lookup("orders.create")
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("Lookup = %v, want [b]", got)
	}
}
