package breaker

import "sync"

// Manager is the process-wide registry of breakers bound to each resource,
// mirroring flow.Provider's shape: a resource may have zero or more
// breakers, one per degrade rule currently configured for it.
type Manager struct {
	mu       sync.RWMutex
	byRes    map[string][]*Breaker
	observer Observer
}

// NewManager builds an empty breaker registry; every breaker it later
// constructs is handed observer (may be nil).
func NewManager(observer Observer) *Manager {
	return &Manager{byRes: make(map[string][]*Breaker), observer: observer}
}

// Configure (re)installs the breaker set for resource, replacing whatever
// was registered before. Existing breakers for other resources are
// untouched.
func (m *Manager) Configure(resource string, rules []Rule) {
	breakers := make([]*Breaker, 0, len(rules))
	for _, r := range rules {
		r.Resource = resource
		if m.observer != nil {
			breakers = append(breakers, NewBreaker(r, m.observer))
		} else {
			breakers = append(breakers, NewBreaker(r))
		}
	}

	m.mu.Lock()
	m.byRes[resource] = breakers
	m.mu.Unlock()
}

// BreakersFor returns the (possibly empty) breaker set bound to resource.
func (m *Manager) BreakersFor(resource string) []*Breaker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byRes[resource]
}

// Resources lists every resource with at least one breaker configured.
func (m *Manager) Resources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byRes))
	for resource := range m.byRes {
		out = append(out, resource)
	}
	return out
}

// MultiObserver fans a state change out to every observer in the slice,
// letting a single Manager notify both a structured logger and a pub/sub
// republisher.
type MultiObserver []Observer

func (m MultiObserver) OnStateChange(rule Rule, prev, next State, snapshot float64) {
	for _, o := range m {
		o.OnStateChange(rule, prev, next, snapshot)
	}
}
