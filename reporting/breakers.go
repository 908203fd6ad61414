package reporting

import "trafficgov.app/pkg/breaker"

// BreakerStatus is one breaker's live state, for the ListBreakers view —
// distinct from audit/service.go's Recent, which only ever sees a
// breaker_transition after the fact; this reflects the current state even
// when a breaker has never transitioned.
type BreakerStatus struct {
	Resource string  `json:"resource"`
	Grade    string  `json:"grade"`
	State    string  `json:"state"`
	Count    float64 `json:"count"`
}

func gradeName(g breaker.Grade) string {
	switch g {
	case breaker.GradeExceptionCount:
		return "exception_count"
	case breaker.GradeExceptionRatio:
		return "exception_ratio"
	case breaker.GradeSlowRatio:
		return "slow_ratio"
	default:
		return "unknown"
	}
}

// listBreakers reports the live state of every configured breaker, across
// every resource the manager currently tracks.
func listBreakers(m *breaker.Manager) []BreakerStatus {
	var out []BreakerStatus
	for _, resource := range m.Resources() {
		for _, b := range m.BreakersFor(resource) {
			rule := b.Rule()
			out = append(out, BreakerStatus{
				Resource: resource,
				Grade:    gradeName(rule.Grade),
				State:    b.State().String(),
				Count:    rule.Count,
			})
		}
	}
	return out
}
