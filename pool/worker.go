package pool

import (
	"runtime"
	"runtime/debug"

	"taskpool/envelope"
)

// runWorker dispatches to the loop for this pool's variant. idx is the
// worker's position, meaningful only for VariantRandomPerWorker (its
// own private queue) and VariantStealing (own queue plus round-robin
// sibling scan).
func (p *Pool) runWorker(idx int) {
	switch p.opts.Variant {
	case VariantSpinShared:
		p.runSpinSharedWorker()
	case VariantBlockingShared:
		p.runBlockingSharedWorker()
	case VariantRandomPerWorker:
		p.runRandomPerWorkerWorker(idx)
	case VariantStealing:
		p.runStealingWorker(idx)
	}
}

// invoke runs one task's callable, recovering a panic so a single bad
// task can't crash the worker goroutine (and, uncaught, the whole
// process — Go has no per-goroutine isolation the way the source's
// aborting-on-invariant-violation stance assumes). The panic is already
// captured by future.Package for Submit-originated tasks; this second
// layer protects the pool itself against non-Submit callers that push
// a raw, unpackaged envelope.
func (p *Pool) invoke(t envelope.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("worker: recovered panic invoking task: %v\n%s", r, debug.Stack())
		}
	}()
	t.Invoke()
}

// runSpinSharedWorker implements variant 1: poll the shared spin queue,
// yield the scheduling quantum on empty.
func (p *Pool) runSpinSharedWorker() {
	for !p.done.Load() {
		if t, ok := p.sharedSpin.TryPop(); ok {
			p.invoke(t)
			continue
		}
		runtime.Gosched()
	}
}

// runBlockingSharedWorker implements variant 2: block on the shared
// queue. Shutdown wakes it via a no-op envelope pushed once per worker,
// or the queue being closed.
func (p *Pool) runBlockingSharedWorker() {
	for !p.done.Load() {
		t, err := p.sharedBlocking.Pop()
		if err != nil {
			return
		}
		p.invoke(t)
	}
}

// runRandomPerWorkerWorker implements variant 3: poll only this
// worker's own queue, no stealing; re-check suspend while spinning.
func (p *Pool) runRandomPerWorkerWorker(idx int) {
	own := p.workerQueues[idx]
	for !p.done.Load() {
		if t, ok := own.TryPop(); ok {
			p.invoke(t)
		} else {
			runtime.Gosched()
		}
		for p.suspend.Load() {
			runtime.Gosched()
		}
	}
}

// runStealingWorker implements variant 4: try this worker's own queue,
// else round-robin siblings starting at (self+1) mod N, else yield;
// re-checks suspend each iteration.
func (p *Pool) runStealingWorker(idx int) {
	n := len(p.workerQueues)
	own := p.workerQueues[idx]
	for !p.done.Load() {
		if t, ok := own.TryPop(); ok {
			p.invoke(t)
		} else if !p.stealOne(idx, n) {
			runtime.Gosched()
		}

		for p.suspend.Load() {
			runtime.Gosched()
		}
	}
}

// stealOne scans sibling queues starting at (idx+1) mod n and invokes
// the first task it finds. Stealing explicitly permits out-of-order
// consumption relative to submission order; only FIFO within a single
// queue is guaranteed.
func (p *Pool) stealOne(idx, n int) bool {
	for i := 1; i < n; i++ {
		sibling := p.workerQueues[(idx+i)%n]
		if t, ok := sibling.TryPop(); ok {
			if p.metrics != nil {
				p.metrics.ObserveStolen()
			}
			p.invoke(t)
			return true
		}
	}
	return false
}

// runScheduler implements the variant-4 scheduler goroutine: blocking
// pop from the intake queue, push into a uniformly random worker
// queue. Exits once done is observed after the shutdown wake-up
// envelope arrives.
func (p *Pool) runScheduler() {
	for {
		t, err := p.intake.Pop()
		if err != nil {
			return
		}
		if p.done.Load() {
			return
		}
		p.workerQueues[p.randomIndex(len(p.workerQueues))].Push(t)
	}
}
