package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvokeRunsExactlyOnce(t *testing.T) {
	calls := 0
	task := New(func() { calls++ })

	assert.False(t, task.Empty())
	task.Invoke()

	assert.Equal(t, 1, calls)
}

func TestEmptyTaskInvokeIsNoop(t *testing.T) {
	var task Task
	assert.True(t, task.Empty())
	assert.NotPanics(t, func() { task.Invoke() })
}
