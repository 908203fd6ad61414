// Package metric implements the per-(context,resource) statistic node (spec
// component E): two LeapArray-backed rings — a sub-second occupiable ring
// and a one-minute ring — plus the QPS/RT queries and the priority-wait
// occupancy algorithm built on top of them.
package metric

import (
	"math"

	"go.uber.org/atomic"
)

// Bucket aggregates the counters spec.md §3 assigns to one window slice:
// pass, block, success, exception, rt (sum), min_rt, occupied_pass.
//
// All counters are monotone within the bucket's lifetime; Reset is the only
// way to decrement, and is only ever called by the owning LeapArray while
// holding its update lock.
type Bucket struct {
	Pass         atomic.Int64
	Block        atomic.Int64
	Success      atomic.Int64
	Exception    atomic.Int64
	Rt           atomic.Int64 // sum of response times, milliseconds
	MinRt        atomic.Int64
	OccupiedPass atomic.Int64
}

// NewBucket returns a zeroed bucket ready for use.
func NewBucket() *Bucket {
	b := &Bucket{}
	b.MinRt.Store(math.MaxInt64)
	return b
}

// Reset zeroes every counter in place, satisfying ringbuf.Bucket.
func (b *Bucket) Reset() {
	b.Pass.Store(0)
	b.Block.Store(0)
	b.Success.Store(0)
	b.Exception.Store(0)
	b.Rt.Store(0)
	b.MinRt.Store(math.MaxInt64)
	b.OccupiedPass.Store(0)
}

// AddSuccess records one (or n, for batched callers) successful completion
// with the given response time, updating both the running sum and the
// bucket's minimum.
func (b *Bucket) AddSuccess(n int64, rtMs int64) {
	b.Success.Add(n)
	b.Rt.Add(rtMs * n)
	for {
		cur := b.MinRt.Load()
		if rtMs >= cur {
			return
		}
		if b.MinRt.CompareAndSwap(cur, rtMs) {
			return
		}
	}
}

// minRtOrZero returns MinRt, or 0 if the bucket never recorded a success
// (MinRt is still at its sentinel).
func (b *Bucket) minRtOrZero() int64 {
	v := b.MinRt.Load()
	if v == math.MaxInt64 {
		return 0
	}
	return v
}
