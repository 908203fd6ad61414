package ruleloader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"trafficgov.app/pkg/flow"
)

func TestRefreshing_RefreshInstallsFetchedRules(t *testing.T) {
	r := NewRefreshing(func(ctx context.Context) (map[string][]flow.Rule, error) {
		return map[string][]flow.Rule{
			"GET /orders": {{Resource: "GET /orders", Count: 10}},
		}, nil
	})

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rules := r.RulesFor("GET /orders")
	if len(rules) != 1 || rules[0].Count != 10 {
		t.Fatalf("RulesFor = %v, want one rule with Count=10", rules)
	}
}

func TestRefreshing_RefreshPropagatesFetchError(t *testing.T) {
	wantErr := errors.New("fetch failed")
	r := NewRefreshing(func(ctx context.Context) (map[string][]flow.Rule, error) {
		return nil, wantErr
	})

	if err := r.Refresh(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Refresh() error = %v, want %v", err, wantErr)
	}
}

func TestRefreshing_ConcurrentRefreshesBothSucceed(t *testing.T) {
	var calls atomic.Int64
	r := NewRefreshing(func(ctx context.Context) (map[string][]flow.Rule, error) {
		calls.Add(1)
		return map[string][]flow.Rule{}, nil
	})

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background()) }()
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got < 1 {
		t.Fatalf("expected at least one fetch, got %d", got)
	}
}
