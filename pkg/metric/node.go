package metric

import (
	"math"

	"go.uber.org/atomic"

	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/ringbuf"
)

// OccupyTimeout is returned by TryOccupyNext when admission cannot be
// achieved within the configured budget.
const OccupyTimeout = math.MaxInt64 / 2 // sentinel larger than any real wait

// Node is the statistic node of spec.md §3/§4.D (component E): two rings —
// a sub-second occupiable ring and a one-minute ring — plus a live thread
// counter. None of its methods block except the sleep TryOccupyNext's
// caller performs afterward; that sleep is explicitly the caller's
// responsibility, not this package's.
type Node struct {
	cfg config.Config

	sub    *ringbuf.LeapArray[*Bucket]
	borrow *ringbuf.LeapArray[*Bucket]
	minute *ringbuf.LeapArray[*Bucket]

	curThreadNum atomic.Int32
	lastFetchMs  atomic.Int64
}

// NewNode allocates a statistic node shaped by cfg.
func NewNode(cfg config.Config) *Node {
	sub, borrow := newSubRing(cfg.SampleCount, cfg.WindowLengthMs())
	return &Node{
		cfg:    cfg,
		sub:    sub,
		borrow: borrow,
		minute: newMinuteRing(),
	}
}

func (n *Node) intervalSeconds() float64 {
	return float64(n.sub.IntervalMs()) / 1000.0
}

func sumOf(bs []*Bucket, pick func(*Bucket) int64) int64 {
	var total int64
	for _, b := range bs {
		total += pick(b)
	}
	return total
}

func maxOf(bs []*Bucket, pick func(*Bucket) int64) int64 {
	var max int64
	for _, b := range bs {
		if v := pick(b); v > max {
			max = v
		}
	}
	return max
}

// PassQPS returns pass count over the sub-second ring, expressed per
// second.
func (n *Node) PassQPS(nowMs int64) float64 {
	sum := sumOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Pass.Load() })
	return float64(sum) / n.intervalSeconds()
}

// BlockQPS, ExceptionQPS, SuccessQPS are analogous to PassQPS.
func (n *Node) BlockQPS(nowMs int64) float64 {
	sum := sumOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Block.Load() })
	return float64(sum) / n.intervalSeconds()
}

func (n *Node) ExceptionQPS(nowMs int64) float64 {
	sum := sumOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Exception.Load() })
	return float64(sum) / n.intervalSeconds()
}

func (n *Node) SuccessQPS(nowMs int64) float64 {
	sum := sumOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Success.Load() })
	return float64(sum) / n.intervalSeconds()
}

// AvgRT is sub_ring.sum(rt) / max(1, sub_ring.sum(success)).
func (n *Node) AvgRT(nowMs int64) float64 {
	values := n.sub.Values(uint64(nowMs))
	rtSum := sumOf(values, func(b *Bucket) int64 { return b.Rt.Load() })
	successSum := sumOf(values, func(b *Bucket) int64 { return b.Success.Load() })
	if successSum < 1 {
		successSum = 1
	}
	return float64(rtSum) / float64(successSum)
}

// MaxSuccessQPS is max_over_buckets(success) * sample_count / interval_seconds.
func (n *Node) MaxSuccessQPS(nowMs int64) float64 {
	max := maxOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Success.Load() })
	return float64(max) * float64(n.sub.SampleCount()) / n.intervalSeconds()
}

// CurThreadNum is the live, non-negative concurrent-call counter.
func (n *Node) CurThreadNum() int32 { return n.curThreadNum.Load() }

// IncreaseThreadNum / DecreaseThreadNum track in-flight calls.
func (n *Node) IncreaseThreadNum() { n.curThreadNum.Add(1) }
func (n *Node) DecreaseThreadNum() {
	for {
		cur := n.curThreadNum.Load()
		if cur <= 0 {
			return
		}
		if n.curThreadNum.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// AddPass records n passes at nowMs in both rings (invariant 4: the minute
// ring is always at least as large as the sub ring for the same instant).
func (n *Node) AddPass(nowMs int64, count int64) {
	n.sub.CurrentWindow(uint64(nowMs)).Value.Pass.Add(count)
	n.minute.CurrentWindow(uint64(nowMs)).Value.Pass.Add(count)
}

// AddBlock records n blocks at nowMs.
func (n *Node) AddBlock(nowMs int64, count int64) {
	n.sub.CurrentWindow(uint64(nowMs)).Value.Block.Add(count)
	n.minute.CurrentWindow(uint64(nowMs)).Value.Block.Add(count)
}

// AddException records n exceptions at nowMs.
func (n *Node) AddException(nowMs int64, count int64) {
	n.sub.CurrentWindow(uint64(nowMs)).Value.Exception.Add(count)
	n.minute.CurrentWindow(uint64(nowMs)).Value.Exception.Add(count)
}

// AddSuccess records n completions with the given (already clamped)
// response time at nowMs.
func (n *Node) AddSuccess(nowMs int64, count int64, rtMs int64) {
	n.sub.CurrentWindow(uint64(nowMs)).Value.AddSuccess(count, rtMs)
	n.minute.CurrentWindow(uint64(nowMs)).Value.AddSuccess(count, rtMs)
}

// AddOccupiedPass increments the minute ring's pass count and its dedicated
// occupied-pass counter, without touching the sub ring directly — the sub
// ring instead picks the pass up later, via the borrow ring, when the
// scheduled bucket itself materialises.
func (n *Node) AddOccupiedPass(nowMs int64, count int64) {
	bucket := n.minute.CurrentWindow(uint64(nowMs)).Value
	bucket.Pass.Add(count)
	bucket.OccupiedPass.Add(count)
}

// AddWaitingRequest records n into the borrow ring's slot for futureMs.
func (n *Node) AddWaitingRequest(futureMs int64, count int64) {
	n.borrow.CurrentWindow(uint64(futureMs)).Value.Pass.Add(count)
}

// CurrentWaiting sums Pass across all live (still-future) borrow slots.
func (n *Node) CurrentWaiting(nowMs int64) int64 {
	return sumOf(n.borrow.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Pass.Load() })
}

// PassInWindow returns the sub ring's pass count for the bucket starting
// exactly at startMs, or 0 if that bucket is stale (already fallen out of
// the horizon) as of nowMs.
func (n *Node) PassInWindow(startMs, nowMs int64) int64 {
	b, ok := n.sub.BucketAt(uint64(startMs), uint64(nowMs))
	if !ok {
		return 0
	}
	return b.Pass.Load()
}

// TryOccupyNext implements spec.md §4.D's priority-occupancy algorithm. It
// returns the number of milliseconds the caller should wait for the
// acquireCount to become admissible under threshold, or metric.OccupyTimeout
// when that cannot be achieved within the configured budget.
func (n *Node) TryOccupyNext(nowMs int64, acquireCount int64, threshold float64) int64 {
	intervalMs := int64(n.sub.IntervalMs())
	windowMs := int64(n.sub.WindowLengthMs())
	occupyTimeoutMs := n.cfg.OccupyTimeoutMs

	maxCount := int64(threshold * float64(intervalMs) / 1000.0)

	currentBorrow := n.CurrentWaiting(nowMs)
	if currentBorrow >= maxCount {
		return OccupyTimeout
	}

	earliest := nowMs - nowMs%windowMs + windowMs - intervalMs
	currentPass := sumOf(n.sub.Values(uint64(nowMs)), func(b *Bucket) int64 { return b.Pass.Load() })

	var idx int64
	for earliest < nowMs {
		wait := idx*windowMs + (windowMs - nowMs%windowMs)
		if wait >= occupyTimeoutMs {
			break
		}

		windowPass := n.PassInWindow(earliest, nowMs)

		if currentPass+currentBorrow+acquireCount-windowPass <= maxCount {
			return wait
		}

		earliest += windowMs
		currentPass -= windowPass
		idx++
	}

	return OccupyTimeout
}

// Metrics returns the per-second detail the minute ring has accumulated
// since the node's last-fetch watermark, advancing that watermark to the
// maximum start returned. Contract: callers must serialize their own
// access to a given node's Metrics — this mirrors an open question in the
// source material (spec.md §9) that this implementation resolves by
// documentation rather than by adding internal locking here.
func (n *Node) Metrics(nowMs int64) map[int64]Detail {
	lastFetch := n.lastFetchMs.Load()
	nowSecond := nowMs - nowMs%1000

	out := make(map[int64]Detail)
	var maxStart int64 = lastFetch

	for _, wrap := range n.minute.Wraps(uint64(nowMs)) {
		start := int64(wrap.StartMs())
		if start <= lastFetch || start >= nowSecond {
			continue
		}
		b := wrap.Value
		if b.Pass.Load() == 0 && b.Block.Load() == 0 && b.Success.Load() == 0 && b.Exception.Load() == 0 {
			continue
		}
		out[start] = Detail{
			Pass:         b.Pass.Load(),
			Block:        b.Block.Load(),
			Success:      b.Success.Load(),
			Exception:    b.Exception.Load(),
			Rt:           b.Rt.Load(),
			OccupiedPass: b.OccupiedPass.Load(),
		}
		if start > maxStart {
			maxStart = start
		}
	}

	n.lastFetchMs.Store(maxStart)
	return out
}

// Detail is one second's worth of counters, as surfaced by Metrics.
type Detail struct {
	Pass         int64
	Block        int64
	Success      int64
	Exception    int64
	Rt           int64
	OccupiedPass int64
}
