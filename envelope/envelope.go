// Package envelope provides a type-erased, single-use wrapper around a
// nullary callable so heterogeneous tasks can travel through one queue.
package envelope

// Task holds exactly one pending unit of work. The zero value is the
// empty Task: constructing it directly rather than through New leaves
// call nil, and invoking it is then a silent no-op rather than a panic.
//
// Task has no compiler-enforced move semantics the way the C++ sources
// this is ported from do, but the convention is the same: a Task is
// handed to exactly one queue slot, popped by exactly one worker, and
// invoked exactly once. Callers must not retain a reference to a Task
// after pushing it.
type Task struct {
	call    func()
	abandon func()
}

// New wraps fn in a Task. fn must be safe to call from any goroutine.
func New(fn func()) Task {
	return Task{call: fn}
}

// NewAbandonable wraps fn in a Task that, if it is ever dropped by the
// pool without being invoked (shutdown racing a submission), calls
// onAbandon instead. This is how a dropped Submit task still resolves
// its caller's Handle with future.ErrAbandoned rather than leaving it
// blocked forever.
func NewAbandonable(fn func(), onAbandon func()) Task {
	return Task{call: fn, abandon: onAbandon}
}

// Empty reports whether the Task holds no callable.
func (t Task) Empty() bool {
	return t.call == nil
}

// Invoke runs the wrapped callable exactly once. Invoking an empty Task
// is a no-op; it should never happen in practice since queues never
// store an empty Task, but workers guard against it defensively instead
// of trusting that invariant blindly.
func (t Task) Invoke() {
	if t.call == nil {
		return
	}
	t.call()
}

// Abandon is called instead of Invoke when the pool drops this Task
// during shutdown without ever running it. A no-op if the Task wasn't
// constructed with an abandonment callback.
func (t Task) Abandon() {
	if t.abandon == nil {
		return
	}
	t.abandon()
}
