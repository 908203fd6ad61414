package topology

import (
	"sync"

	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/metric"
)

// Manager is the process-wide registry of the invocation topology: it
// lazily creates cluster nodes (one per resource), entrance nodes (one
// per context), and the default nodes binding the two, mirroring the
// teacher's pattern of a single registry object constructed once and
// shared by reference rather than reached for through package globals.
type Manager struct {
	cfg config.Config

	clustersMu sync.Mutex
	clusters   map[string]*ClusterNode

	entrancesMu sync.Mutex
	entrances   map[string]*EntranceNode

	defaultsMu sync.Mutex
	defaults   map[contextResource]*DefaultNode

	// globalIn aggregates every entry admitted anywhere in the process,
	// used for process-wide inbound QPS/avg_rt reporting.
	globalIn *metricAdapter
}

type contextResource struct {
	context  string
	resource string
}

// NewManager allocates a topology manager using cfg for every node it
// lazily creates.
func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cfg:       cfg,
		clusters:  make(map[string]*ClusterNode),
		entrances: make(map[string]*EntranceNode),
		defaults:  make(map[contextResource]*DefaultNode),
		globalIn:  &metricAdapter{stat: metric.NewNode(cfg)},
	}
}

// ClusterNodeFor returns (creating if absent) the cluster node for a
// resource.
func (m *Manager) ClusterNodeFor(resource string) *ClusterNode {
	m.clustersMu.Lock()
	defer m.clustersMu.Unlock()
	if n, ok := m.clusters[resource]; ok {
		return n
	}
	n := NewClusterNode(resource, m.cfg)
	m.clusters[resource] = n
	return n
}

// EntranceNodeFor returns (creating if absent) the entrance node for a
// context — the first entry from a new context creates it, per spec §4.E.
func (m *Manager) EntranceNodeFor(context string) *EntranceNode {
	m.entrancesMu.Lock()
	defer m.entrancesMu.Unlock()
	if n, ok := m.entrances[context]; ok {
		return n
	}
	n := newEntranceNode(context, m.cfg)
	m.entrances[context] = n
	return n
}

// DefaultNodeFor returns (creating and attaching if absent) the
// per-(context,resource) default node, attached under the context's
// entrance node on first creation.
func (m *Manager) DefaultNodeFor(context, resource string) *DefaultNode {
	key := contextResource{context, resource}

	m.defaultsMu.Lock()
	if n, ok := m.defaults[key]; ok {
		m.defaultsMu.Unlock()
		return n
	}
	m.defaultsMu.Unlock()

	n := newDefaultNode(context, resource, m.cfg)
	entrance := m.EntranceNodeFor(context)
	entrance.Root().AddChild(n)

	m.defaultsMu.Lock()
	defer m.defaultsMu.Unlock()
	if existing, ok := m.defaults[key]; ok {
		return existing
	}
	m.defaults[key] = n
	return n
}

// Resources returns every resource name that has been seen so far (i.e.
// has a cluster node), in no particular order.
func (m *Manager) Resources() []string {
	m.clustersMu.Lock()
	defer m.clustersMu.Unlock()
	out := make([]string, 0, len(m.clusters))
	for r := range m.clusters {
		out = append(out, r)
	}
	return out
}

// Config returns the configuration this manager stamps new nodes with.
func (m *Manager) Config() config.Config { return m.cfg }

// GlobalIn is the process-wide aggregate node every admitted/blocked entry
// also books into, regardless of context or resource.
func (m *Manager) GlobalIn() Node { return m.globalIn }

// metricAdapter lets a bare metric.Node satisfy the Node interface.
type metricAdapter struct{ stat *metric.Node }

func (a *metricAdapter) Stat() *metric.Node          { return a.stat }
func (a *metricAdapter) PassQPS(nowMs int64) float64 { return a.stat.PassQPS(nowMs) }
func (a *metricAdapter) AvgRT(nowMs int64) float64   { return a.stat.AvgRT(nowMs) }
