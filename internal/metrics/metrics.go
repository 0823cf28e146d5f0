// Package metrics exposes pool-lifecycle Prometheus metrics, adapted
// from the teacher's metrics/prometheus_gin.go gin-request wrapper:
// same functional-options registration and namespace/id/version
// labelling, driven by pool events instead of gin requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures the namespace and identity labels attached to
// every metric, matching the teacher's Namespace/Id/Version options.
type Options struct {
	Namespace string
	Id        string
	Version   string
}

// Option mutates Options.
type Option func(o *Options)

// Namespace sets the Prometheus metric namespace.
func Namespace(n string) Option {
	return func(o *Options) { o.Namespace = n }
}

// Id sets the pool instance id label.
func Id(n string) Option {
	return func(o *Options) { o.Id = n }
}

// Version sets the build/version label.
func Version(n string) Option {
	return func(o *Options) { o.Version = n }
}

// Recorder collects pool-lifecycle counters and gauges in a private
// registry, returned by Registry for serving from /metrics.
type Recorder struct {
	registry *prometheus.Registry

	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	stolen    prometheus.Counter

	queueDepth      *prometheus.GaugeVec
	workersRunning  prometheus.Gauge
}

// New constructs a Recorder and registers its collectors.
func New(opts ...Option) *Recorder {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}

	labels := prometheus.Labels{}
	if o.Id != "" {
		labels["pool_id"] = o.Id
	}
	if o.Version != "" {
		labels["version"] = o.Version
	}

	reg := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(labels, reg)

	r := &Recorder{
		registry: reg,
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "pool_tasks_submitted_total",
			Help:      "Tasks accepted by Submit, by variant.",
		}, []string{"variant"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "pool_tasks_completed_total",
			Help:      "Tasks whose callable returned without error.",
		}, []string{"variant"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "pool_tasks_failed_total",
			Help:      "Tasks whose callable returned an error or panicked.",
		}, []string{"variant"}),
		stolen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "pool_tasks_stolen_total",
			Help:      "Tasks a worker popped from a sibling's queue (variant 4 only).",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: o.Namespace,
			Name:      "pool_queue_depth",
			Help:      "Last observed queue occupancy, by queue name.",
		}, []string{"queue"}),
		workersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: o.Namespace,
			Name:      "pool_workers_running",
			Help:      "Number of worker goroutines currently alive.",
		}),
	}

	wrapped.MustRegister(
		r.submitted,
		r.completed,
		r.failed,
		r.stolen,
		r.queueDepth,
		r.workersRunning,
	)

	return r
}

// Registry returns the underlying registry for serving a /metrics
// endpoint (see cmd/poolserver).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveSubmitted(variant string) {
	r.submitted.WithLabelValues(variant).Inc()
}

func (r *Recorder) ObserveCompleted(variant string) {
	r.completed.WithLabelValues(variant).Inc()
}

func (r *Recorder) ObserveFailed(variant string) {
	r.failed.WithLabelValues(variant).Inc()
}

func (r *Recorder) ObserveStolen() {
	r.stolen.Inc()
}

func (r *Recorder) SetQueueDepth(queue string, depth int) {
	r.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

func (r *Recorder) SetWorkersRunning(n int) {
	r.workersRunning.Set(float64(n))
}
