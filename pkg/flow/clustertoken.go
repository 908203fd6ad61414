package flow

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClusterTokenClient is the local-fallback contract spec.md §1 carves out
// of scope for the real inter-process cluster-token protocol: when a rule
// sets ClusterMode but no cluster server is reachable, requests are
// accounted locally instead, using one token-bucket limiter per resource.
type ClusterTokenClient struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClusterTokenClient returns a client with no limiters yet configured;
// Allow lazily creates one per resource the first time it is seen, sized
// by the threshold passed to that call.
func NewClusterTokenClient() *ClusterTokenClient {
	return &ClusterTokenClient{limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether acquireCount tokens are currently available for
// resource, under a limiter sized to qps (tokens/sec, burst of one
// second's worth plus one, i.e. int(qps)+1). The limiter is created on first use and resized
// whenever the caller's rule threshold changes.
func (c *ClusterTokenClient) Allow(resource string, qps float64, acquireCount int64) bool {
	return c.limiterFor(resource, qps).AllowN(time.Now(), int(acquireCount))
}

// Reconfigure resizes the limiter for resource to a new qps threshold,
// called when the owning rule's Count changes.
func (c *ClusterTokenClient) Reconfigure(resource string, qps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[resource] = rate.NewLimiter(rate.Limit(qps), int(qps)+1)
}

func (c *ClusterTokenClient) limiterFor(resource string, qps float64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[resource]; ok {
		if float64(l.Limit()) != qps {
			l.SetLimit(rate.Limit(qps))
			l.SetBurst(int(qps) + 1)
		}
		return l
	}
	l := rate.NewLimiter(rate.Limit(qps), int(qps)+1)
	c.limiters[resource] = l
	return l
}
