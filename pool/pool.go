// Package pool implements the task-dispatch engine: four interchangeable
// worker-goroutine pool variants behind one Submit/Close surface.
// Grounded on the four C++ headers in the retrieval pack's
// original_source (blocking_shared_pool.h, lockwise_unique_pool.h,
// blocking_shared_lockwise_mutual_pool.h and the spin-queue they share)
// and, for Go idiom, on kennyzhu2013-gocommon/gpool (functional
// options, atomic state flags, sync.Cond wait/signal, worker-side
// panic recovery).
package pool

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"taskpool/envelope"
	"taskpool/future"
	"taskpool/internal/log"
	"taskpool/internal/metrics"
	"taskpool/queue"
)

// Pool constructs workers and queues for one of the four dispatch
// variants, exposes Submit, and owns the shutdown protocol.
type Pool struct {
	opts      Options
	lifecycle lifecycle
	done      atomic.Bool
	suspend   atomic.Bool

	rngMu sync.Mutex
	rng   *rand.Rand

	logger  log.Logger
	metrics *metrics.Recorder

	workersWG sync.WaitGroup
	group     *errgroup.Group // variant 4 only: scheduler + workers

	sharedSpin     *queue.Spin[envelope.Task]
	sharedBlocking *queue.Blocking[envelope.Task]
	workerQueues   []*queue.Spin[envelope.Task]
	intake         *queue.Blocking[envelope.Task]

	closeOnce sync.Once
	closeErr  error
}

// New constructs a Pool running the selected variant (VariantSpinShared
// by default) and starts its workers immediately.
func New(opts ...Option) (*Pool, error) {
	o := loadOptions(opts...)

	if o.WorkerCount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, o.WorkerCount)
	}

	logger := o.Logger
	if logger == nil {
		logger = log.New()
	}

	var rngSource rand.Source
	if o.HasSeed {
		rngSource = rand.NewSource(o.Seed)
	} else {
		rngSource = rand.NewSource(time.Now().UnixNano())
	}

	p := &Pool{
		opts:    o,
		rng:     rand.New(rngSource),
		logger:  logger,
		metrics: o.Metrics,
	}

	switch o.Variant {
	case VariantSpinShared:
		p.sharedSpin = queue.NewSpin[envelope.Task]()
	case VariantBlockingShared:
		p.sharedBlocking = queue.NewBlocking[envelope.Task]()
	case VariantRandomPerWorker:
		p.workerQueues = make([]*queue.Spin[envelope.Task], o.WorkerCount)
		for i := range p.workerQueues {
			p.workerQueues[i] = queue.NewSpin[envelope.Task]()
		}
	case VariantStealing:
		p.workerQueues = make([]*queue.Spin[envelope.Task], o.WorkerCount)
		for i := range p.workerQueues {
			p.workerQueues[i] = queue.NewSpin[envelope.Task]()
		}
		p.intake = queue.NewBlocking[envelope.Task]()
	default:
		return nil, fmt.Errorf("pool: unknown variant %d", o.Variant)
	}

	p.start()
	return p, nil
}

func (p *Pool) start() {
	if p.opts.Variant == VariantStealing {
		p.group = new(errgroup.Group)
		for i := 0; i < p.opts.WorkerCount; i++ {
			idx := i
			p.group.Go(func() error {
				p.runWorker(idx)
				return nil
			})
		}
		p.group.Go(func() error {
			p.runScheduler()
			return nil
		})
		return
	}

	p.workersWG.Add(p.opts.WorkerCount)
	for i := 0; i < p.opts.WorkerCount; i++ {
		idx := i
		go func() {
			defer p.workersWG.Done()
			p.runWorker(idx)
		}()
	}
}

// randomIndex returns a uniformly random index in [0, n) using the
// pool's private PRNG. math/rand.Rand is not safe for concurrent use,
// hence the dedicated mutex — this pool never reaches for the
// package-global rand functions (see SPEC_FULL.md §9).
func (p *Pool) randomIndex(n int) int {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Intn(n)
}

// variantName is used for metric labels.
func (p *Pool) variantName() string {
	return p.opts.Variant.String()
}

// submitEnvelope routes a wrapped task to the correct queue for this
// pool's variant, or rejects it if the pool isn't Running.
func (p *Pool) submitEnvelope(task envelope.Task) error {
	if !p.lifecycle.Is(stateRunning) {
		return ErrSubmitAfterShutdown
	}

	switch p.opts.Variant {
	case VariantSpinShared:
		p.sharedSpin.Push(task)
	case VariantBlockingShared:
		p.sharedBlocking.Push(task)
	case VariantRandomPerWorker:
		p.workerQueues[p.randomIndex(len(p.workerQueues))].Push(task)
	case VariantStealing:
		p.intake.Push(task)
	}

	if p.metrics != nil {
		p.metrics.ObserveSubmitted(p.variantName())
	}
	return nil
}

// Submit wraps fn in a packaged task, routes it to the pool, and
// returns a Handle the caller can retrieve the result from. Submit is a
// free function rather than a method because Go forbids new type
// parameters on methods.
func Submit[R any](p *Pool, fn func() (R, error)) (*future.Handle[R], error) {
	handle, resolver := future.NewHandle[R]()
	packaged := future.Package(fn, resolver)

	variant := p.variantName()
	wrapped := func() {
		packaged()
		if p.metrics != nil {
			if _, err, _ := handle.Peek(); err != nil {
				p.metrics.ObserveFailed(variant)
			} else {
				p.metrics.ObserveCompleted(variant)
			}
		}
	}
	onAbandon := func() { resolver.Reject(future.ErrAbandoned) }

	if err := p.submitEnvelope(envelope.NewAbandonable(wrapped, onAbandon)); err != nil {
		return nil, err
	}
	return handle, nil
}

// Close runs the shutdown protocol: drains in-flight tasks, signals
// termination, joins every worker (and, for VariantStealing, the
// scheduler), then releases queue storage. Close is idempotent; a
// second call returns the result of the first.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.shutdown()
	})
	return p.closeErr
}

func (p *Pool) shutdown() error {
	if !p.lifecycle.Advance(stateRunning, stateDraining) {
		return nil
	}

	remaining := p.sampleRemainingUnderSuspend()
	p.logger.Infof("%d tasks remain before destructing pool.", remaining)

	p.waitForDrain()

	p.lifecycle.Advance(stateDraining, stateStopping)
	p.done.Store(true)

	p.wakeBlockedConsumers()
	p.abandonQueuedTasks()
	p.joinAll()

	p.lifecycle.Advance(stateStopping, stateTerminated)
	return nil
}

// sampleRemainingUnderSuspend samples queue occupancy for the shutdown
// diagnostic line. For the variants with a suspend flag it is flipped
// around the sample to stop workers from advancing mid-count, then
// released immediately — the result is still only a lower bound, since
// workers may pop while suspend isn't held (see SPEC_FULL.md §9); it is
// advisory, never an invariant.
func (p *Pool) sampleRemainingUnderSuspend() int {
	hasSuspend := p.opts.Variant == VariantRandomPerWorker || p.opts.Variant == VariantStealing
	if hasSuspend {
		p.suspend.Store(true)
	}

	remaining := p.queueDepth()

	if hasSuspend {
		p.suspend.Store(false)
	}
	return remaining
}

func (p *Pool) queueDepth() int {
	switch p.opts.Variant {
	case VariantSpinShared:
		return p.sharedSpin.Len()
	case VariantBlockingShared:
		return p.sharedBlocking.Len()
	case VariantRandomPerWorker:
		n := 0
		for _, q := range p.workerQueues {
			n += q.Len()
		}
		return n
	case VariantStealing:
		n := p.intake.Len()
		for _, q := range p.workerQueues {
			n += q.Len()
		}
		return n
	default:
		return 0
	}
}

// waitForDrain polls, sleeping 1ms between checks, until every data
// queue is observed empty.
// Workers keep consuming during this phase; it is not a cancellable
// operation, matching the source's internal bookkeeping loop.
func (p *Pool) waitForDrain() {
	for p.queueDepth() > 0 {
		time.Sleep(time.Millisecond)
	}
	if p.opts.Variant == VariantStealing {
		for !p.intake.Empty() {
			time.Sleep(time.Millisecond)
		}
	}
}

// wakeBlockedConsumers pushes one no-op envelope per blocked consumer,
// matching the source's shutdown wake-up exactly: N envelopes on the
// shared blocking queue (one per worker) for VariantBlockingShared, one
// on the intake queue for VariantStealing.
func (p *Pool) wakeBlockedConsumers() {
	noop := envelope.New(func() {})
	switch p.opts.Variant {
	case VariantBlockingShared:
		for i := 0; i < p.opts.WorkerCount; i++ {
			p.sharedBlocking.Push(noop)
		}
		p.sharedBlocking.Close()
	case VariantStealing:
		p.intake.Push(noop)
		p.intake.Close()
	}
}

// abandonQueuedTasks reclaims any task still sitting in a queue after
// done is set — pushed in the race window between the drain check
// (step 2) and done being stored (step 3), so no worker's "while
// !done" loop will ever pop it — and calls its envelope's abandonment
// callback, which resolves the caller's Handle with future.ErrAbandoned
// instead of leaving it blocked forever.
func (p *Pool) abandonQueuedTasks() {
	abandonAll := func(tasks []envelope.Task) {
		for _, t := range tasks {
			t.Abandon()
		}
	}

	switch p.opts.Variant {
	case VariantSpinShared:
		abandonAll(p.sharedSpin.DrainAll())
	case VariantBlockingShared:
		abandonAll(p.sharedBlocking.DrainAll())
	case VariantRandomPerWorker:
		for _, q := range p.workerQueues {
			abandonAll(q.DrainAll())
		}
	case VariantStealing:
		abandonAll(p.intake.DrainAll())
		for _, q := range p.workerQueues {
			abandonAll(q.DrainAll())
		}
	}
}

func (p *Pool) joinAll() {
	if p.opts.Variant == VariantStealing {
		_ = p.group.Wait()
		return
	}
	p.workersWG.Wait()
}
