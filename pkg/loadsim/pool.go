// Package loadsim generates synthetic concurrent Enter/Exit traffic
// against an admission engine, for property and load tests — a fixed
// pool of worker goroutines pulling simulated calls off a queue, adapted
// from the caching system's cache-warming worker pool.
package loadsim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"trafficgov.app/pkg/admission"
)

// Call describes one simulated protected-resource invocation.
type Call struct {
	Context  string
	Resource string
	Origin   string
	Count    int64
	// Fail, if true, makes the simulated call end with a non-block error
	// rather than a success.
	Fail bool
	// HoldFor simulates the protected logic's own duration before Exit.
	HoldFor time.Duration
}

// Pool drives Calls through an admission.Engine using a fixed number of
// concurrent worker goroutines.
type Pool struct {
	engine  *admission.Engine
	queue   chan Call
	wg      sync.WaitGroup
	passed  atomic.Int64
	blocked atomic.Int64
}

// NewPool starts numWorkers goroutines pulling from an internally buffered
// queue, each driving calls through engine until the queue is closed.
func NewPool(engine *admission.Engine, numWorkers int) *Pool {
	p := &Pool{engine: engine, queue: make(chan Call, 1024)}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for call := range p.queue {
		p.drive(call)
	}
}

func (p *Pool) drive(call Call) {
	nowMs := time.Now().UnixMilli()
	entry, _, err := p.engine.Enter(context.Background(), call.Context, call.Resource, call.Origin, call.Count, nowMs)
	if err != nil {
		p.blocked.Add(1)
		return
	}
	p.passed.Add(1)

	if call.HoldFor > 0 {
		time.Sleep(call.HoldFor)
	}
	if call.Fail {
		entry.SetError(errSimulated)
	}
	p.engine.Exit(entry, time.Now().UnixMilli())
}

// Submit enqueues calls for the pool's workers to drive. It blocks if the
// internal queue is full, applying natural backpressure.
func (p *Pool) Submit(calls ...Call) {
	for _, c := range calls {
		p.queue <- c
	}
}

// Close stops accepting new calls and waits for every in-flight call to
// finish.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// Passed and Blocked report how many simulated calls this pool has driven
// through each outcome so far.
func (p *Pool) Passed() int64  { return p.passed.Load() }
func (p *Pool) Blocked() int64 { return p.blocked.Load() }

type simulatedError struct{}

func (simulatedError) Error() string { return "loadsim: simulated failure" }

var errSimulated = simulatedError{}
