package reporting

import "trafficgov.app/internal/runtime"

// StateChangeEvent and BreakerStateTopic are published from
// internal/runtime (where the breaker.Manager is constructed); re-exported
// here so reporting's own package doc can point at one place for the
// service's event surface.
type StateChangeEvent = runtime.StateChangeEvent

var BreakerStateTopic = runtime.BreakerStateTopic
