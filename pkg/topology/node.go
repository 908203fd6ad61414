// Package topology implements the invocation topology of spec.md §4.E
// (component F): per-resource cluster nodes, per-(context,resource)
// default nodes arranged in a tree under a per-context entrance node, and
// per-origin nodes. Each node wraps a metric.Node; the topology's job is
// purely routing and aggregation.
package topology

import (
	"sync"

	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/metric"
)

// Node is any point in the topology a caller can book statistics against.
type Node interface {
	Stat() *metric.Node
	PassQPS(nowMs int64) float64
	AvgRT(nowMs int64) float64
}

// ClusterNode aggregates one resource across every context that calls it.
// There is exactly one per resource name, shared process-wide.
type ClusterNode struct {
	Resource string
	stat     *metric.Node

	mu      sync.Mutex
	origins map[string]*OriginNode
}

// NewClusterNode allocates a cluster node for resource.
func NewClusterNode(resource string, cfg config.Config) *ClusterNode {
	return &ClusterNode{
		Resource: resource,
		stat:     metric.NewNode(cfg),
		origins:  make(map[string]*OriginNode),
	}
}

func (c *ClusterNode) Stat() *metric.Node { return c.stat }

func (c *ClusterNode) PassQPS(nowMs int64) float64 { return c.stat.PassQPS(nowMs) }
func (c *ClusterNode) AvgRT(nowMs int64) float64   { return c.stat.AvgRT(nowMs) }

// OriginFor returns (creating if absent) the per-origin node tracking calls
// to this resource from a specific calling origin.
func (c *ClusterNode) OriginFor(origin string, cfg config.Config) *OriginNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.origins[origin]; ok {
		return n
	}
	n := &OriginNode{Origin: origin, Resource: c.Resource, stat: metric.NewNode(cfg)}
	c.origins[origin] = n
	return n
}

// OriginNode tracks one (resource, calling-origin) pair, used by the
// origin-limit-app rules of spec.md §4.F's node-selection table.
type OriginNode struct {
	Origin   string
	Resource string
	stat     *metric.Node
}

func (o *OriginNode) Stat() *metric.Node      { return o.stat }
func (o *OriginNode) PassQPS(nowMs int64) float64 { return o.stat.PassQPS(nowMs) }
func (o *OriginNode) AvgRT(nowMs int64) float64   { return o.stat.AvgRT(nowMs) }

// DefaultNode is the per-(context,resource) tree node: the statistics a
// single invocation context records against a single resource, with its
// own child list for CHAIN-strategy sub-resources.
type DefaultNode struct {
	Context  string
	Resource string
	stat     *metric.Node

	childrenMu sync.Mutex
	children   []*DefaultNode // copy-on-write
}

func newDefaultNode(context, resource string, cfg config.Config) *DefaultNode {
	return &DefaultNode{Context: context, Resource: resource, stat: metric.NewNode(cfg)}
}

func (d *DefaultNode) Stat() *metric.Node      { return d.stat }
func (d *DefaultNode) PassQPS(nowMs int64) float64 { return d.stat.PassQPS(nowMs) }
func (d *DefaultNode) AvgRT(nowMs int64) float64   { return d.stat.AvgRT(nowMs) }

// AddChild appends child under a short mutex, replacing the slice with a
// freshly copied one so concurrent readers of Children() never observe a
// partial write.
func (d *DefaultNode) AddChild(child *DefaultNode) {
	d.childrenMu.Lock()
	defer d.childrenMu.Unlock()
	next := make([]*DefaultNode, len(d.children), len(d.children)+1)
	copy(next, d.children)
	d.children = append(next, child)
}

// Children returns the current child snapshot; safe to range over without
// holding any lock, since AddChild never mutates a published slice.
func (d *DefaultNode) Children() []*DefaultNode {
	d.childrenMu.Lock()
	defer d.childrenMu.Unlock()
	return d.children
}

// EntranceNode is the root of one context's invocation tree: the first
// entry from a new context creates one. Its metric accessors aggregate
// over its direct children rather than maintaining their own counters.
type EntranceNode struct {
	Context string
	root    *DefaultNode
}

func newEntranceNode(context string, cfg config.Config) *EntranceNode {
	return &EntranceNode{Context: context, root: newDefaultNode(context, context, cfg)}
}

// Root returns the entrance's backing default node, the attachment point
// for top-level resources entered directly under this context.
func (e *EntranceNode) Root() *DefaultNode { return e.root }

// PassQPS is the sum of children's pass_qps (spec §4.E aggregation rule).
func (e *EntranceNode) PassQPS(nowMs int64) float64 {
	var total float64
	for _, c := range e.root.Children() {
		total += c.PassQPS(nowMs)
	}
	return total
}

// AvgRT is the pass_qps-weighted mean of children's avg_rt.
func (e *EntranceNode) AvgRT(nowMs int64) float64 {
	var weightedSum, totalWeight float64
	for _, c := range e.root.Children() {
		w := c.PassQPS(nowMs)
		weightedSum += w * c.AvgRT(nowMs)
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// BlockQPS and friends follow the same sum-of-children rule; only pass_qps
// and avg_rt are named explicitly by the spec's scenario, but the others
// are symmetric so callers can treat an EntranceNode like any other node
// for dashboards.
func (e *EntranceNode) BlockQPS(nowMs int64) float64 {
	var total float64
	for _, c := range e.root.Children() {
		total += c.stat.BlockQPS(nowMs)
	}
	return total
}
