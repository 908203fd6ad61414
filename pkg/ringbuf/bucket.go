// Package ringbuf implements the lock-lean, time-indexed ring of buckets that
// every sliding-window statistic in trafficgov is built on.
//
// A LeapArray holds a fixed number of slots ("buckets"), each covering a
// window of wall-clock time. The hot path — resolving the bucket for "now"
// — is a single atomic load and a pointer/timestamp comparison; only the
// rare stale-bucket reset path takes a (very briefly held) mutex.
//
// Design Notes:
//   - Three ring shapes (standard, future-only "borrow", and the occupiable
//     composition of the two) differ only in their BucketGenerator and
//     staleness predicate, never in the CAS/reset machinery itself.
//   - sync/atomic.Pointer is used for the slot array itself: this is the one
//     place in the module where the stdlib, not a third-party package, is
//     the right tool — nothing in the retrieval pack offers a closer-fitting
//     lock-free pointer-ring primitive, and this is the central algorithm
//     the spec is built around, not an ambient concern to outsource.
package ringbuf

// Bucket is any aggregate counter container that can be reset in place for
// reuse when its slot is recycled.
type Bucket interface {
	Reset()
}

// BucketGenerator creates empty buckets for newly installed slots. Rings
// that need to do something extra when a slot is reset (the occupiable ring
// seeding a bucket's pass count from its borrow ring) implement AfterReset
// in addition.
type BucketGenerator[T Bucket] interface {
	NewEmptyBucket(startMs uint64) T
}

// AfterReset is an optional hook a BucketGenerator can implement to run
// extra logic immediately after a stale slot has been zeroed and
// re-pointed at a new window. It runs under the ring's update lock.
type AfterReset[T Bucket] interface {
	AfterReset(bw *BucketWrap[T], startMs uint64)
}
