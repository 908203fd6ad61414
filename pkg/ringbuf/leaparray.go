package ringbuf

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// StaleFunc decides whether a bucket wrap, as observed at nowMs, should be
// treated as stale (and therefore excluded from Values/BucketAt, and
// eligible for in-place reset on the next CurrentWindow call that lands on
// a later window).
//
// The standard ring's predicate is "nowMs - wrap.start >= intervalMs". The
// future-only borrow ring instead uses "nowMs >= wrap.start": a scheduled
// future slot becomes stale — ready to be folded into the regular ring —
// the instant its moment arrives.
type StaleFunc[T Bucket] func(nowMs uint64, wrap *BucketWrap[T]) bool

// LeapArray is a fixed-size ring of BucketWrap slots indexed by
// floor(t/windowLengthMs) mod sampleCount.
type LeapArray[T Bucket] struct {
	windowLengthMs uint64
	sampleCount    uint64
	intervalMs     uint64

	slots []atomic.Pointer[BucketWrap[T]]
	mu    sync.Mutex // contention-only; held solely across the stale-reset branch

	gen   BucketGenerator[T]
	stale StaleFunc[T]
}

// NewLeapArray builds a ring with the given shape. intervalMs must be a
// whole multiple of windowLengthMs. A nil stale passes the standard
// predicate (nowMs - start >= intervalMs).
func NewLeapArray[T Bucket](sampleCount int, windowLengthMs uint64, gen BucketGenerator[T], stale StaleFunc[T]) *LeapArray[T] {
	if sampleCount <= 0 {
		panic("ringbuf: sampleCount must be positive")
	}
	if windowLengthMs == 0 {
		panic("ringbuf: windowLengthMs must be positive")
	}
	intervalMs := windowLengthMs * uint64(sampleCount)

	la := &LeapArray[T]{
		windowLengthMs: windowLengthMs,
		sampleCount:    uint64(sampleCount),
		intervalMs:     intervalMs,
		slots:          make([]atomic.Pointer[BucketWrap[T]], sampleCount),
		gen:            gen,
	}
	if stale != nil {
		la.stale = stale
	} else {
		la.stale = func(nowMs uint64, wrap *BucketWrap[T]) bool {
			return nowMs-wrap.StartMs() >= intervalMs
		}
	}
	return la
}

// WindowLengthMs, SampleCount, IntervalMs expose the ring's fixed shape.
func (la *LeapArray[T]) WindowLengthMs() uint64 { return la.windowLengthMs }
func (la *LeapArray[T]) SampleCount() uint64     { return la.sampleCount }
func (la *LeapArray[T]) IntervalMs() uint64       { return la.intervalMs }

func (la *LeapArray[T]) idx(timeMs uint64) uint64 {
	return (timeMs / la.windowLengthMs) % la.sampleCount
}

func (la *LeapArray[T]) alignedStart(timeMs uint64) uint64 {
	return timeMs - timeMs%la.windowLengthMs
}

// CurrentWindow returns the unique bucket wrap whose window contains nowMs,
// creating or recycling the slot as needed. The hot path (slot already
// current) is a single atomic load and an equality check.
func (la *LeapArray[T]) CurrentWindow(nowMs uint64) *BucketWrap[T] {
	idx := la.idx(nowMs)
	start := la.alignedStart(nowMs)
	slot := &la.slots[idx]

	for {
		old := slot.Load()

		switch {
		case old == nil:
			fresh := &BucketWrap[T]{windowLengthMs: la.windowLengthMs, Value: la.gen.NewEmptyBucket(start)}
			fresh.startMs.Store(start)
			if slot.CompareAndSwap(nil, fresh) {
				return fresh
			}
			runtime.Gosched()
			continue

		case old.StartMs() == start:
			return old

		case old.StartMs() < start:
			if !la.mu.TryLock() {
				runtime.Gosched()
				continue
			}
			// Re-check under the lock: another goroutine may have already
			// reset this slot while we were spinning for the lock.
			if old.StartMs() < start {
				old.Value.Reset()
				old.startMs.Store(start)
				if ar, ok := la.gen.(AfterReset[T]); ok {
					ar.AfterReset(old, start)
				}
			}
			la.mu.Unlock()
			return old

		default:
			// old.StartMs() > start: impossible under a monotone clock.
			// Treat as clock skew: hand back a fresh, unlinked wrap rather
			// than install it, per spec.
			fresh := &BucketWrap[T]{windowLengthMs: la.windowLengthMs, Value: la.gen.NewEmptyBucket(start)}
			fresh.startMs.Store(start)
			return fresh
		}
	}
}

// Values returns the non-stale bucket values as of nowMs. Order is
// unspecified.
func (la *LeapArray[T]) Values(nowMs uint64) []T {
	out := make([]T, 0, la.sampleCount)
	for i := range la.slots {
		wrap := la.slots[i].Load()
		if wrap == nil {
			continue
		}
		if la.stale(nowMs, wrap) {
			continue
		}
		out = append(out, wrap.Value)
	}
	return out
}

// Wraps returns the non-stale bucket wraps (not just their values) as of
// nowMs, for callers that also need each bucket's start time.
func (la *LeapArray[T]) Wraps(nowMs uint64) []*BucketWrap[T] {
	out := make([]*BucketWrap[T], 0, la.sampleCount)
	for i := range la.slots {
		wrap := la.slots[i].Load()
		if wrap == nil {
			continue
		}
		if la.stale(nowMs, wrap) {
			continue
		}
		out = append(out, wrap)
	}
	return out
}

// BucketAt returns the bucket value whose window starts exactly at startMs,
// provided it exists and is not stale as of nowMs. Used for
// "pass_in_window"-style point lookups, where a bucket that has already
// fallen out of the horizon must read back as absent (zero).
func (la *LeapArray[T]) BucketAt(startMs, nowMs uint64) (value T, ok bool) {
	idx := la.idx(startMs)
	wrap := la.slots[idx].Load()
	if wrap == nil || wrap.StartMs() != startMs {
		return value, false
	}
	if la.stale(nowMs, wrap) {
		return value, false
	}
	return wrap.Value, true
}

// PeekAny returns the bucket value whose window starts exactly at startMs
// regardless of staleness. This is how the occupiable ring reads a
// scheduled borrow slot at the exact instant its moment arrives — the
// borrow ring's own staleness predicate says "stale" at that point, but the
// value must still be read once, for seeding.
func (la *LeapArray[T]) PeekAny(startMs uint64) (value T, ok bool) {
	idx := la.idx(startMs)
	wrap := la.slots[idx].Load()
	if wrap == nil || wrap.StartMs() != startMs {
		return value, false
	}
	return wrap.Value, true
}

// PreviousWindow returns the bucket covering nowMs-windowLengthMs if it is
// present and not stale, per spec's previous_window(t).
func (la *LeapArray[T]) PreviousWindow(nowMs uint64) (value T, ok bool) {
	if nowMs < la.windowLengthMs {
		return value, false
	}
	prevStart := la.alignedStart(nowMs) - la.windowLengthMs
	return la.BucketAt(prevStart, nowMs)
}

// String is a small debugging aid.
func (la *LeapArray[T]) String() string {
	return fmt.Sprintf("LeapArray{sampleCount=%d, windowLengthMs=%d, intervalMs=%d}", la.sampleCount, la.windowLengthMs, la.intervalMs)
}
