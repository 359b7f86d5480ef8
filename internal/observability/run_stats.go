// Package observability provides in-process run statistics for benchmark
// sweeps and repeated sessions.
package observability

import (
	"sort"
	"sync"
	"time"
)

// RunStats aggregates per-pool-size session outcomes across a process
// lifetime. Sweeps record one sample per completed session; the best
// observed rate per pool size survives across sweeps.
type RunStats struct {
	mu      sync.RWMutex
	byPool  map[int]*PoolStats
	ticks   int64
	started time.Time
}

// PoolStats holds aggregate statistics for one worker-pool bound.
type PoolStats struct {
	PoolBound    int
	Runs         int64
	TotalBytes   int64
	TotalElapsed time.Duration
	BestMBps     float64
	LastSeen     time.Time
}

// NewRunStats creates a run statistics tracker.
func NewRunStats() *RunStats {
	return &RunStats{
		byPool:  make(map[int]*PoolStats),
		started: time.Now(),
	}
}

// RecordSession records one completed session.
// This method is O(1) and thread-safe.
func (r *RunStats) RecordSession(poolBound int, totalBytes int64, elapsed time.Duration, throughputMBps float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, exists := r.byPool[poolBound]
	if !exists {
		stats = &PoolStats{PoolBound: poolBound}
		r.byPool[poolBound] = stats
	}

	stats.Runs++
	stats.TotalBytes += totalBytes
	stats.TotalElapsed += elapsed
	if throughputMBps > stats.BestMBps {
		stats.BestMBps = throughputMBps
	}
	stats.LastSeen = time.Now()
}

// RecordTick counts one progress tick. Used to sanity-check that progress
// reporting stays throttled during long sessions.
func (r *RunStats) RecordTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

// Ticks returns the number of progress ticks recorded so far.
func (r *RunStats) Ticks() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticks
}

// Snapshot returns a copy of the per-pool statistics sorted by pool bound
// ascending, matching sweep run order.
func (r *RunStats) Snapshot() []PoolStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]PoolStats, 0, len(r.byPool))
	for _, s := range r.byPool {
		stats = append(stats, *s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].PoolBound < stats[j].PoolBound
	})
	return stats
}

// Uptime returns how long this tracker has been alive.
func (r *RunStats) Uptime() time.Duration {
	return time.Since(r.started)
}
