package flow

import "trafficgov.app/pkg/topology"

// selectNode implements spec.md §4.F's node-selection table: given the
// calling origin and a candidate rule, decide which topology node the
// rule's threshold is evaluated against, or nil if the rule does not apply
// to this call at all.
func selectNode(mgr *topology.Manager, context, resource, origin string, rule Rule) topology.Node {
	isNamedOrigin := origin != "" && origin != LimitAppDefault && origin != LimitAppOther

	switch rule.LimitApp {
	case LimitAppDefault:
		switch rule.Strategy {
		case StrategyDirect:
			return mgr.ClusterNodeFor(resource)
		case StrategyRelate:
			return mgr.ClusterNodeFor(rule.RefResource)
		case StrategyChain:
			if rule.RefResource == context {
				return mgr.DefaultNodeFor(context, resource)
			}
			return nil
		}
		return nil

	case LimitAppOther:
		// "other" rules apply to any origin not explicitly named by a
		// more specific rule for this resource; CanPass skips this rule
		// entirely once it finds a rule naming the calling origin, so
		// selectNode itself never needs to know about sibling rules.
		return mgr.ClusterNodeFor(resource).OriginFor(origin, mgr.Config())

	default:
		// Specific limit_app: only applies when it names the actual
		// calling origin.
		if !isNamedOrigin || rule.LimitApp != origin {
			return nil
		}
		switch rule.Strategy {
		case StrategyDirect:
			return mgr.ClusterNodeFor(resource).OriginFor(origin, mgr.Config())
		case StrategyRelate:
			return mgr.ClusterNodeFor(rule.RefResource)
		case StrategyChain:
			if rule.RefResource == context {
				return mgr.DefaultNodeFor(context, resource)
			}
			return nil
		}
		return nil
	}
}
