package pool

import "errors"

// ErrSubmitAfterShutdown is returned by Submit once the pool has left
// the Running state. The source this spec is ported from admits a race
// where a late submission is silently dropped; this spec mandates the
// typed rejection instead (see SPEC_FULL.md's Open Questions).
var ErrSubmitAfterShutdown = errors.New("pool: submit called after shutdown started")

// ErrInvalidWorkerCount is returned by New when asked to build a pool
// with a non-positive worker count. Go goroutine spawn can't fail the
// way std::thread construction can, so the SpawnFailure contract is
// honored by validating preconditions eagerly instead of unwinding
// partially-started goroutines.
var ErrInvalidWorkerCount = errors.New("pool: worker count must be positive")

// ErrAlreadyClosed is not returned by any function in this package:
// Submit reports a pool that is shutting down or already closed with
// ErrSubmitAfterShutdown.
var ErrAlreadyClosed = errors.New("pool: already closed")
