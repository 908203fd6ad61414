// Package flow implements the rate-limit controller of spec.md §4.F: rule
// definitions, node selection by strategy, and the can_pass admission
// algorithm.
package flow

// Grade selects what a rule's Count threshold is measured against.
type Grade int

const (
	// GradeQPS counts passes per second.
	GradeQPS Grade = iota
	// GradeThread counts concurrently in-flight calls.
	GradeThread
)

// Strategy selects which topology node a rule's threshold is evaluated
// against, per spec.md §4.F's node-selection table.
type Strategy int

const (
	// StrategyDirect evaluates against the node itself (or the origin
	// node, when limit_app names a specific caller).
	StrategyDirect Strategy = iota
	// StrategyRelate evaluates against the cluster node of RefResource.
	StrategyRelate
	// StrategyChain evaluates against the current node, but only when
	// RefResource names the entering context itself.
	StrategyChain
)

// LimitApp identifies which calling origin a rule applies to. The literal
// values "default" and "other" are reserved, mirroring spec.md §4.F.
const (
	LimitAppDefault = "default"
	LimitAppOther   = "other"
)

// Rule is one flow-control rule, as handed back by a RuleProvider.
type Rule struct {
	Resource string
	Grade    Grade
	Count    float64
	Strategy Strategy
	// RefResource is consulted by StrategyRelate and StrategyChain.
	RefResource string
	// LimitApp is the calling origin this rule binds to: a specific
	// origin name, LimitAppDefault, or LimitAppOther.
	LimitApp string
	// Prioritized requests may wait for a future bucket instead of being
	// rejected outright; only meaningful when Grade == GradeQPS.
	Prioritized bool
	// ClusterMode selects the local-fallback token accounting of
	// ClusterTokenClient; false means purely local accounting.
	ClusterMode bool
}

// Provider supplies the current rule set for a resource. Rule loading,
// remote distribution, and storage are out of scope (spec.md §1) — callers
// wire in their own implementation (see pkg/ruleloader for one).
type Provider interface {
	RulesFor(resource string) []Rule
}
