// Package worker provides the background worker contract, the shared
// wake-up signal, and the completion waiter used by the session runner.
//
// A worker is any long-running unit of work that can be started exactly
// once, observed while running, and inspected for a terminal error after it
// stops. The harness is written only against this contract; the concrete
// variants (line counting, duplicate checking) live in this package but are
// never special-cased by the waiter or the runner.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Worker is the capability set every background worker satisfies.
type Worker interface {
	// Start begins asynchronous execution. It must not block and must be
	// called exactly once per worker instance; a second call records a
	// terminal error instead of restarting the work.
	Start(ctx context.Context)

	// Running reports whether work is still in progress. It transitions
	// true -> false exactly once and never becomes true again.
	Running() bool

	// Err returns the terminal failure, or nil. A nil error after Running
	// has become false means the work succeeded. Once set it is never
	// cleared.
	Err() error
}

// lifecycle implements the shared Start/Running/Err bookkeeping for the
// concrete worker variants. The embedding worker calls begin() from Start
// and finish() from its goroutine when the work concludes.
type lifecycle struct {
	started atomic.Bool
	running atomic.Bool

	mu  sync.Mutex
	err error

	signal *Signal
}

// begin transitions the worker into the running state. It returns false if
// Start was already called, in which case a DOUBLE_START error is recorded
// and the caller must not launch the work again.
func (l *lifecycle) begin(doubleStartErr error) bool {
	if !l.started.CompareAndSwap(false, true) {
		l.mu.Lock()
		if l.err == nil {
			l.err = doubleStartErr
		}
		l.mu.Unlock()
		return false
	}
	l.running.Store(true)
	return true
}

// finish records the terminal state, clears the running flag, and wakes the
// waiter. The running flag is cleared last-but-one so an observer that sees
// Running()==false is guaranteed to see the final error as well.
func (l *lifecycle) finish(err error) {
	if err != nil {
		l.mu.Lock()
		if l.err == nil {
			l.err = err
		}
		l.mu.Unlock()
	}
	l.running.Store(false)
	if l.signal != nil {
		l.signal.Set()
	}
}

// Running reports whether the work is still in progress.
func (l *lifecycle) Running() bool {
	return l.running.Load()
}

// Err returns the terminal failure, or nil.
func (l *lifecycle) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
