// Package future provides the one-shot result slot a submitted task
// resolves into. It is a trimmed-down relative of
// process.ProGoroutine from the teacher repo: the same pending-flag,
// mutex-guarded resolve/reject split and panic recovery, stripped of
// the Then/Catch/All promise chaining this spec has no use for.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAbandoned is delivered to a Handle whose task was dropped by pool
// teardown before it was ever popped and invoked.
var ErrAbandoned = errors.New("future: handle abandoned, pool closed before task ran")

// Handle is a one-shot asynchronous slot associated with exactly one
// packaged task. Get blocks until the slot is resolved.
type Handle[R any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value R
	err   error
}

// NewHandle returns a pending Handle and the resolver used to fill it
// exactly once.
func NewHandle[R any]() (*Handle[R], *Resolver[R]) {
	h := &Handle[R]{done: make(chan struct{})}
	return h, &Resolver[R]{h: h}
}

// Get blocks until the handle is resolved or ctx is done. A ctx
// cancellation unblocks the caller without affecting the underlying
// task, which keeps running to completion regardless — this spec has
// no task-cancellation-after-submit feature.
func (h *Handle[R]) Get(ctx context.Context) (R, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.value, h.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Peek returns the resolved value/error and true if the Handle has
// already been resolved, without blocking. It exists for callers that
// know resolution already happened (e.g. the pool observing its own
// packaged task just returned) and want to avoid the race of selecting
// between an already-closed done channel and an already-cancelled
// context inside Get.
func (h *Handle[R]) Peek() (R, error, bool) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.value, h.err, true
	default:
		var zero R
		return zero, nil, false
	}
}

// Resolver is the write side of a Handle, held by the packaged task
// that eventually fills it. Resolve/Reject are safe to call from any
// goroutine; only the first call has an effect.
type Resolver[R any] struct {
	h    *Handle[R]
	once sync.Once
}

// Resolve deposits a successful value.
func (r *Resolver[R]) Resolve(v R) {
	r.once.Do(func() {
		r.h.mu.Lock()
		r.h.value = v
		r.h.mu.Unlock()
		close(r.h.done)
	})
}

// Reject deposits a failure.
func (r *Resolver[R]) Reject(err error) {
	r.once.Do(func() {
		r.h.mu.Lock()
		r.h.err = err
		r.h.mu.Unlock()
		close(r.h.done)
	})
}

// Package wraps fn into a func() that, when invoked, resolves r with
// fn's return value or error, recovering and reporting any panic as a
// failure instead of letting it escape to the worker goroutine that
// invokes it.
func Package[R any](fn func() (R, error), r *Resolver[R]) func() {
	return func() {
		defer func() {
			if p := recover(); p != nil {
				r.Reject(fmt.Errorf("%w: %v", ErrTaskPanicked, p))
			}
		}()
		v, err := fn()
		if err != nil {
			r.Reject(err)
			return
		}
		r.Resolve(v)
	}
}

// ErrTaskPanicked wraps a recovered panic from a submitted callable.
var ErrTaskPanicked = errors.New("future: task panicked")
