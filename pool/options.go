package pool

import (
	"runtime"

	"taskpool/internal/log"
	"taskpool/internal/metrics"
)

// Variant selects one of the four interchangeable dispatch engines
// described in SPEC_FULL.md §1.
type Variant int

const (
	// VariantSpinShared is a single shared nonblocking queue protected
	// by a spin mutex; workers poll and yield on emptiness.
	VariantSpinShared Variant = iota + 1

	// VariantBlockingShared is a single shared blocking queue; workers
	// sleep until notified.
	VariantBlockingShared

	// VariantRandomPerWorker gives each worker a private nonblocking
	// queue; submission picks a worker uniformly at random, no
	// stealing.
	VariantRandomPerWorker

	// VariantStealing adds a pool intake queue fed by a dedicated
	// scheduler goroutine, with work-stealing fallback across sibling
	// worker queues.
	VariantStealing
)

func (v Variant) String() string {
	switch v {
	case VariantSpinShared:
		return "spin-shared"
	case VariantBlockingShared:
		return "blocking-shared"
	case VariantRandomPerWorker:
		return "random-per-worker"
	case VariantStealing:
		return "stealing"
	default:
		return "unknown"
	}
}

// Options collects the construction-time configuration for a Pool,
// populated by functional Options the way the teacher's gpool and
// metrics packages do.
type Options struct {
	Variant     Variant
	WorkerCount int
	Seed        int64
	HasSeed     bool
	Logger      log.Logger
	Metrics     *metrics.Recorder
}

// Option mutates Options. Matches the teacher's `type Option func(o
// *Options)` convention used across gpool, metrics and log/newlog.
type Option func(o *Options)

// WithVariant selects the dispatch engine. Defaults to
// VariantSpinShared.
func WithVariant(v Variant) Option {
	return func(o *Options) { o.Variant = v }
}

// WithWorkerCount overrides the default worker count
// (runtime.GOMAXPROCS(0), falling back to 1).
func WithWorkerCount(n int) Option {
	return func(o *Options) { o.WorkerCount = n }
}

// WithSeed injects a deterministic seed for the per-pool RNG used by
// variants 3 and 4 for random queue placement. Without this option the
// pool seeds its own RNG from the current time (time.Now().UnixNano()),
// never a process-wide global RNG (see SPEC_FULL.md §9).
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Seed = seed
		o.HasSeed = true
	}
}

// WithLogger overrides the default zap-backed logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics attaches a metrics.Recorder; pool events are silently
// uncounted if none is supplied.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Options) { o.Metrics = m }
}

func loadOptions(opts ...Option) Options {
	o := Options{
		Variant:     VariantSpinShared,
		WorkerCount: defaultWorkerCount(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// defaultWorkerCount mirrors the source's
// std::thread::hardware_concurrency() with a fallback of 1 when the
// platform can't report a usable value.
func defaultWorkerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}
