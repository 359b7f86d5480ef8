package session

import (
	"sync"
	"time"
)

// Stopwatch accumulates wall-clock time across the iterations of one
// session. It is an explicit accumulator passed into the runner, never an
// ambient global: each session owns its own instance.
type Stopwatch struct {
	mu          sync.Mutex
	accumulated time.Duration
	startedAt   time.Time
	running     bool
}

// NewStopwatch returns a stopped stopwatch with zero accumulated time.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{}
}

// Start begins (or resumes) timing. Starting a running stopwatch is a no-op.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.startedAt = time.Now()
	s.running = true
}

// Stop pauses timing, folding the live span into the accumulated total.
// Stopping a stopped stopwatch is a no-op.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.accumulated += time.Since(s.startedAt)
	s.running = false
}

// Elapsed returns the accumulated time, including the live span when the
// stopwatch is running.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.accumulated + time.Since(s.startedAt)
	}
	return s.accumulated
}
