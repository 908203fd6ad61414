// Package breaker implements the circuit breaker state machine of
// spec.md §4.G: a shared CLOSED/OPEN/HALF_OPEN state machine, with two
// trigger modes (exception count/ratio, and slow-call ratio) layered on
// top via their own dedicated statistic ring.
package breaker

import (
	"sync"
	"sync/atomic"

	uberatomic "go.uber.org/atomic"

	"trafficgov.app/pkg/ringbuf"
)

// State is one of the breaker's three states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Grade selects a breaker's trigger mode.
type Grade int

const (
	GradeExceptionCount Grade = iota
	GradeExceptionRatio
	GradeSlowRatio
)

// Rule configures one breaker instance, per spec.md §6.
type Rule struct {
	Resource          string
	Grade             Grade
	Count             float64 // threshold: the exception count/ratio, or slow-ratio
	TimeWindowS       int64   // recovery_ms = TimeWindowS * 1000
	StatIntervalMs    int64   // the dedicated ring's horizon
	MinRequestAmount  int64   // minimum samples before a ratio/count trips
	MaxAllowedRtMs    int64   // slow-call threshold for GradeSlowRatio
	SampleCount       int     // dedicated ring's bucket count
}

// Observer is notified synchronously on every state transition.
type Observer interface {
	OnStateChange(rule Rule, prev, next State, snapshot float64)
}

// slotBucket is the breaker's own counter bucket: error/total for
// count/ratio mode, slow/total for slow-ratio mode — both fields are
// always maintained so a rule's grade can be reconfigured without
// reallocating the ring.
type slotBucket struct {
	errorOrSlow uberatomic.Int64
	total       uberatomic.Int64
}

func (b *slotBucket) Reset() {
	b.errorOrSlow.Store(0)
	b.total.Store(0)
}

type slotGen struct{}

func (slotGen) NewEmptyBucket(uint64) *slotBucket { return &slotBucket{} }

// Breaker is one circuit breaker instance, bound to a single resource and
// rule.
type Breaker struct {
	rule      Rule
	observers []Observer

	state       atomic.Int32 // State
	nextRetryMs atomic.Int64

	ring *ringbuf.LeapArray[*slotBucket]

	// probeMu serialises the rare HALF_OPEN -> {CLOSED,OPEN} transition
	// against concurrent completions; CAS alone is not enough because the
	// transition also needs to reset/not-reset the stat bucket.
	probeMu sync.Mutex
}

// NewBreaker builds a breaker for rule, notifying observers on every
// transition. recoveryMs is rule.TimeWindowS*1000 by construction.
func NewBreaker(rule Rule, observers ...Observer) *Breaker {
	sampleCount := rule.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}
	windowMs := uint64(rule.StatIntervalMs) / uint64(sampleCount)
	if windowMs == 0 {
		windowMs = 1
	}
	return &Breaker{
		rule:      rule,
		observers: observers,
		ring:      ringbuf.NewLeapArray[*slotBucket](sampleCount, windowMs, slotGen{}, nil),
	}
}

func (b *Breaker) State() State { return State(b.state.Load()) }

// Rule returns the configuration this breaker was built from.
func (b *Breaker) Rule() Rule { return b.rule }

func (b *Breaker) recoveryMs() int64 { return b.rule.TimeWindowS * 1000 }

// TryPass implements spec.md §4.G's try_pass: CLOSED always passes; OPEN
// passes (admitting exactly one probe) once the recovery timeout has
// elapsed; HALF_OPEN rejects everything else.
func (b *Breaker) TryPass(nowMs int64) bool {
	switch b.State() {
	case Closed:
		return true
	case Open:
		if nowMs < b.nextRetryMs.Load() {
			return false
		}
		return b.state.CompareAndSwap(int32(Open), int32(HalfOpen))
	case HalfOpen:
		return false
	default:
		return false
	}
}

// OnProbeBlockedDownstream is the terminate-hook spec.md §4.G and scenario
// 5 describe: when a HALF_OPEN probe is itself rejected by some other,
// downstream rule (not this breaker), the breaker falls back to OPEN
// without touching its stat bucket.
func (b *Breaker) OnProbeBlockedDownstream(nowMs int64) {
	if b.state.CompareAndSwap(int32(HalfOpen), int32(Open)) {
		b.nextRetryMs.Store(nowMs + b.recoveryMs())
		b.notify(HalfOpen, Open, 0)
	}
}

// OnRequestComplete implements spec.md §4.G's on_request_complete for both
// trigger modes. failed indicates an exception occurred (count/ratio
// mode); rtMs is the observed response time (slow-ratio mode, ignored
// otherwise).
func (b *Breaker) OnRequestComplete(nowMs int64, failed bool, rtMs int64) {
	bucket := b.ring.CurrentWindow(uint64(nowMs)).Value
	bucket.total.Add(1)
	if b.tripSignal(failed, rtMs) {
		bucket.errorOrSlow.Add(1)
	}

	switch b.State() {
	case Open:
		return
	case HalfOpen:
		b.probeMu.Lock()
		defer b.probeMu.Unlock()
		if b.State() != HalfOpen {
			return
		}
		if !b.tripSignal(failed, rtMs) {
			b.state.Store(int32(Closed))
			b.ring.CurrentWindow(uint64(nowMs)).Value.Reset()
			b.notify(HalfOpen, Closed, 0)
		} else {
			b.state.Store(int32(Open))
			b.nextRetryMs.Store(nowMs + b.recoveryMs())
			b.notify(HalfOpen, Open, 0)
		}
	default: // Closed
		b.evaluateClosed(nowMs)
	}
}

// tripSignal reports whether this completion counts toward the trip
// counter: exception presence for count/ratio mode, slow-RT for
// slow-ratio mode.
func (b *Breaker) tripSignal(failed bool, rtMs int64) bool {
	if b.rule.Grade == GradeSlowRatio {
		return rtMs > b.rule.MaxAllowedRtMs
	}
	return failed
}

func (b *Breaker) evaluateClosed(nowMs int64) {
	var errorOrSlow, total int64
	for _, bucket := range b.ring.Values(uint64(nowMs)) {
		errorOrSlow += bucket.errorOrSlow.Load()
		total += bucket.total.Load()
	}
	if total < b.rule.MinRequestAmount {
		return
	}

	var metricValue float64
	switch b.rule.Grade {
	case GradeExceptionCount:
		metricValue = float64(errorOrSlow)
	default: // GradeExceptionRatio, GradeSlowRatio
		metricValue = float64(errorOrSlow) / float64(total)
	}

	if metricValue > b.rule.Count {
		if b.state.CompareAndSwap(int32(Closed), int32(Open)) {
			b.nextRetryMs.Store(nowMs + b.recoveryMs())
			b.notify(Closed, Open, metricValue)
		}
	}
}

func (b *Breaker) notify(prev, next State, snapshot float64) {
	for _, o := range b.observers {
		o.OnStateChange(b.rule, prev, next, snapshot)
	}
}
