package pool

import "sync/atomic"

// lifecycleState is a small fixed-chain state machine, trimmed from
// the teacher's util/fsm.FSM (named events, source/destination state
// pairs, before/enter callbacks) down to the one linear chain this
// spec needs: Running -> Draining -> Stopping -> Terminated. A general
// named-transition table would be overkill for a chain with no
// branching and no callbacks to register.
type lifecycleState int32

const (
	stateRunning lifecycleState = iota
	stateDraining
	stateStopping
	stateTerminated
)

func (s lifecycleState) String() string {
	switch s {
	case stateRunning:
		return "Running"
	case stateDraining:
		return "Draining"
	case stateStopping:
		return "Stopping"
	case stateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// lifecycle guards the pool's state transitions with a single atomic
// word; transitions only ever move forward in the chain.
type lifecycle struct {
	current atomic.Int32
}

func (l *lifecycle) Current() lifecycleState {
	return lifecycleState(l.current.Load())
}

// Is reports whether the lifecycle is currently in state s.
func (l *lifecycle) Is(s lifecycleState) bool {
	return l.Current() == s
}

// Advance moves the lifecycle to the next state in the chain exactly
// once, returning false if it had already advanced past from.
func (l *lifecycle) Advance(from, to lifecycleState) bool {
	return l.current.CompareAndSwap(int32(from), int32(to))
}
