package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderObserves(t *testing.T) {
	r := New(Namespace("taskpool_test"), Id("p1"))

	r.ObserveSubmitted("spin")
	r.ObserveSubmitted("spin")
	r.ObserveCompleted("spin")
	r.ObserveFailed("spin")
	r.ObserveStolen()
	r.SetQueueDepth("intake", 3)
	r.SetWorkersRunning(4)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.submitted.WithLabelValues("spin")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.completed.WithLabelValues("spin")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.failed.WithLabelValues("spin")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.stolen))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.queueDepth.WithLabelValues("intake")))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.workersRunning))
}
