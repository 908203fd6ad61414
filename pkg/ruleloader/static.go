// Package ruleloader provides RuleProvider implementations: a static,
// test-friendly provider, and a refreshing provider that coalesces
// concurrent reloads and indexes rules by a resource-name pattern,
// adapted from the caching system's key-pattern matcher and its
// singleflight-style request coalescer.
package ruleloader

import (
	"strings"
	"sync"

	"trafficgov.app/pkg/breaker"
	"trafficgov.app/pkg/flow"
)

// isPattern reports whether a key installed via Set should be indexed as a
// glob pattern (e.g. "order:*") rather than an exact resource name.
func isPattern(key string) bool {
	return strings.ContainsAny(key, "*?")
}

// Static is a fixed, in-memory flow.Provider — useful for tests and for
// any deployment that manages rules out of process config rather than a
// remote rule source. Rules installed under an exact resource name are
// looked up in O(1); rules installed under a glob pattern are only
// consulted once an exact-name lookup misses, so the common hot-path
// lookup spec.md §4.A assumes elsewhere in the system stays cheap.
type Static struct {
	mu      sync.RWMutex
	rules   map[string][]flow.Rule
	pattern *Index[flow.Rule]
}

// NewStatic builds an empty static provider.
func NewStatic() *Static {
	return &Static{rules: make(map[string][]flow.Rule), pattern: NewIndex[flow.Rule]()}
}

// Set replaces the rule set for resource, which may be an exact resource
// name or a glob pattern.
func (s *Static) Set(resource string, rules []flow.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isPattern(resource) {
		s.pattern.Set(resource, rules)
		return
	}
	s.rules[resource] = rules
}

// RulesFor implements flow.Provider: an exact match wins; absent one, every
// installed pattern that matches resource contributes its rules.
func (s *Static) RulesFor(resource string) []flow.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rules, ok := s.rules[resource]; ok {
		return rules
	}
	return s.pattern.Lookup(resource)
}

// StaticDegrade is the degrade-rule analogue of Static, feeding a
// breaker.Manager instead of a flow.Controller. It indexes by exact
// resource name first and falls back to pattern-scoped rules the same way
// Static does.
type StaticDegrade struct {
	mu      sync.RWMutex
	rules   map[string][]breaker.Rule
	pattern *Index[breaker.Rule]
}

// NewStaticDegrade builds an empty static degrade-rule source.
func NewStaticDegrade() *StaticDegrade {
	return &StaticDegrade{rules: make(map[string][]breaker.Rule), pattern: NewIndex[breaker.Rule]()}
}

// Set replaces the degrade rule set for resource, which may be an exact
// resource name or a glob pattern.
func (s *StaticDegrade) Set(resource string, rules []breaker.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isPattern(resource) {
		s.pattern.Set(resource, rules)
		return
	}
	s.rules[resource] = rules
}

// RulesFor returns the degrade rules configured for resource: an exact
// match wins; absent one, every installed pattern that matches resource
// contributes its rules.
func (s *StaticDegrade) RulesFor(resource string) []breaker.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rules, ok := s.rules[resource]; ok {
		return rules
	}
	return s.pattern.Lookup(resource)
}
