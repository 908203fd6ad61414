package reporting

import (
	"sort"

	"trafficgov.app/pkg/topology"
)

// HotResource is one entry in the ranked hot-resource list.
type HotResource struct {
	Resource string  `json:"resource"`
	PassQPS  float64 `json:"pass_qps"`
	AvgRT    float64 `json:"avg_rt"`
}

// topN ranks every resource the topology has seen by its cluster node's
// current pass_qps, returning the top `limit` — adapted from the caching
// system's access-frequency predictor, scored here by live pass_qps
// rather than a decayed historical access count, since the core already
// maintains that figure per resource.
func topN(topo *topology.Manager, nowMs int64, limit int) []HotResource {
	resources := topo.Resources()
	scored := make([]HotResource, 0, len(resources))
	for _, r := range resources {
		cn := topo.ClusterNodeFor(r)
		scored = append(scored, HotResource{
			Resource: r,
			PassQPS:  cn.PassQPS(nowMs),
			AvgRT:    cn.AvgRT(nowMs),
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].PassQPS > scored[j].PassQPS })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
