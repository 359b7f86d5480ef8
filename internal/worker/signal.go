package worker

import "time"

// Signal is the auto-resetting wake-up event shared between a session's
// workers and the completion waiter. Workers call Set when they finish (or
// hit an internal milestone) and continue immediately; the waiter blocks in
// Wait with a bounded timeout.
//
// Auto-reset semantics: a successful Wait consumes the signal. Multiple Sets
// between two waits coalesce into one wake-up. That is safe for the waiter
// because it rescans every worker after each wake, so a coalesced (or
// "missed") signal can at worst delay detection by one poll interval, never
// lose a completion.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates an unset signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Set marks the signal. It never blocks: if the signal is already set the
// call is a no-op.
func (s *Signal) Set() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the signal is set or the timeout elapses. It returns
// true if it consumed a signal, false on timeout. Consuming resets the
// signal for the next Wait.
func (s *Signal) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ch:
		return true
	case <-timer.C:
		return false
	}
}
