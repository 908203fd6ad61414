// Package admission wires the flow controller, circuit breakers, and
// invocation topology together into the single enter/exit pipeline
// spec.md §4.H describes.
package admission

import "fmt"

// BlockedByFlowError is returned from Enter when a flow rule rejects the
// call.
type BlockedByFlowError struct {
	Rule     string
	LimitApp string
}

func (e *BlockedByFlowError) Error() string {
	return fmt.Sprintf("blocked by flow rule %q (limit-app %q)", e.Rule, e.LimitApp)
}

// BlockedByDegradeError is returned from Enter when a circuit breaker is
// OPEN or HALF_OPEN and rejects the probe.
type BlockedByDegradeError struct {
	Resource string
}

func (e *BlockedByDegradeError) Error() string {
	return fmt.Sprintf("blocked by circuit breaker for resource %q", e.Resource)
}

// IsBlocked reports whether err is one of the two typed block errors this
// package returns.
func IsBlocked(err error) bool {
	switch err.(type) {
	case *BlockedByFlowError, *BlockedByDegradeError:
		return true
	default:
		return false
	}
}
