package metric

import "trafficgov.app/pkg/ringbuf"

// standardGenerator creates plain empty buckets: used by the minute ring and
// by the future-only borrow ring (spec component C).
type standardGenerator struct{}

func (standardGenerator) NewEmptyBucket(uint64) *Bucket { return NewBucket() }

// borrowStale is the future-only ring's staleness predicate: a scheduled
// future slot becomes stale the instant its moment arrives, so that it is
// then recycled back into an ordinary bucket on its next reuse.
func borrowStale(nowMs uint64, wrap *ringbuf.BucketWrap[*Bucket]) bool {
	return nowMs >= wrap.StartMs()
}

// occupiableGenerator is the sub-second ring's generator: whenever a slot is
// (re)installed for window start t, it seeds that slot's Pass counter from
// the borrow ring's slot for the same t (if any is scheduled there), per
// spec §4.C. The borrow slot is not otherwise mutated — once its moment has
// passed it is simply left to be overwritten the next time that index is
// reused for a new future reservation.
type occupiableGenerator struct {
	borrow *ringbuf.LeapArray[*Bucket]
}

func (g *occupiableGenerator) NewEmptyBucket(startMs uint64) *Bucket {
	b := NewBucket()
	g.seed(b, startMs)
	return b
}

func (g *occupiableGenerator) AfterReset(wrap *ringbuf.BucketWrap[*Bucket], startMs uint64) {
	g.seed(wrap.Value, startMs)
}

func (g *occupiableGenerator) seed(b *Bucket, startMs uint64) {
	if borrowed, ok := g.borrow.PeekAny(startMs); ok {
		if n := borrowed.Pass.Load(); n > 0 {
			b.Pass.Add(n)
		}
	}
}

// newSubRing builds the sub-second occupiable ring plus its backing borrow
// ring, per spec defaults: sample_count=2, interval_ms=1000.
func newSubRing(sampleCount int, windowLengthMs uint64) (sub, borrow *ringbuf.LeapArray[*Bucket]) {
	borrow = ringbuf.NewLeapArray[*Bucket](sampleCount, windowLengthMs, standardGenerator{}, borrowStale)
	sub = ringbuf.NewLeapArray[*Bucket](sampleCount, windowLengthMs, &occupiableGenerator{borrow: borrow}, nil)
	return sub, borrow
}

// newMinuteRing builds the one-minute ring: 60 buckets of 1000ms each,
// borrow disabled.
func newMinuteRing() *ringbuf.LeapArray[*Bucket] {
	return ringbuf.NewLeapArray[*Bucket](60, 1000, standardGenerator{}, nil)
}
