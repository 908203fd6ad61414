package ringbuf

import "sync/atomic"

// BucketWrap pairs a Bucket with the window it currently covers.
//
// "Contains t" iff startMs <= t < startMs+windowLengthMs. startMs is always
// aligned to windowLengthMs (start = t - t%windowLengthMs).
type BucketWrap[T Bucket] struct {
	windowLengthMs uint64
	startMs        atomic.Uint64
	Value          T
}

// WindowLengthMs returns the fixed window size this wrap was created with.
func (w *BucketWrap[T]) WindowLengthMs() uint64 {
	return w.windowLengthMs
}

// StartMs returns the window start this wrap currently covers.
func (w *BucketWrap[T]) StartMs() uint64 {
	return w.startMs.Load()
}

// Contains reports whether the given instant falls within this wrap's
// window.
func (w *BucketWrap[T]) Contains(timeMs uint64) bool {
	start := w.startMs.Load()
	return timeMs >= start && timeMs < start+w.windowLengthMs
}
