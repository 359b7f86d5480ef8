package session

import (
	"context"
	"time"

	herrors "github.com/filemark/filemark/internal/errors"
	"github.com/filemark/filemark/internal/worker"
)

// Factory builds one worker for a work item. The runner calls it once per
// item per iteration; workers are never reused across iterations.
type Factory func(item WorkItem, chunkSize, poolBound int, sig *worker.Signal) worker.Worker

// ProgressFunc receives throttled progress ticks: how many workers are
// still running out of how many, which iteration is in flight (0-based),
// and the session's cumulative elapsed time.
type ProgressFunc func(running, total, iteration int, elapsed time.Duration)

// RunnerConfig holds the runner's timing knobs.
type RunnerConfig struct {
	// PollInterval bounds the completion waiter's sleep (default 100ms).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// ProgressInterval is the minimum wall-time spacing between visible
	// progress ticks (default 1s).
	ProgressInterval time.Duration `json:"progress_interval" yaml:"progress_interval"`
}

// DefaultRunnerConfig returns sensible defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PollInterval:     worker.DefaultPollInterval,
		ProgressInterval: time.Second,
	}
}

// Runner executes session descriptors: it starts one worker per work item,
// waits for quiescence, aggregates the first error in worker index order,
// and repeats for the descriptor's iteration count.
type Runner struct {
	factory    Factory
	cfg        RunnerConfig
	onProgress ProgressFunc
}

// NewRunner creates a runner. onProgress may be nil.
func NewRunner(factory Factory, cfg RunnerConfig, onProgress ProgressFunc) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = worker.DefaultPollInterval
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = time.Second
	}
	return &Runner{
		factory:    factory,
		cfg:        cfg,
		onProgress: onProgress,
	}
}

// RunResult is the per-session outcome. Err carries the first worker error
// observed in index order, index-qualified, with the original message
// preserved verbatim; nil means every iteration succeeded.
type RunResult struct {
	SessionID      string
	PoolBound      int
	IterationsDone int
	Elapsed        time.Duration

	// AllIdentical is the AND of every duplicate-check worker's verdict.
	// It stays true for sessions with no duplicate-check workers.
	AllIdentical bool

	// LineCounts holds per-item line counts from the last completed
	// iteration, in work-item order. Empty for sessions with no indexing
	// workers.
	LineCounts []int64

	Err error
}

// Run executes one session. The stopwatch starts before the first iteration
// and stops after the last, accumulating across iterations; the progress
// callback fires at most once per ProgressInterval of that cumulative time.
//
// Aggregation is deterministic: it runs strictly after the waiter confirms
// quiescence and depends only on the workers' terminal states, never on
// completion order. A worker failure aborts the session's remaining
// iterations; no partial success is reported for that session.
func (r *Runner) Run(ctx context.Context, d Descriptor) RunResult {
	res := RunResult{
		SessionID:    d.ID,
		PoolBound:    d.PoolBound,
		AllIdentical: true,
	}

	watch := NewStopwatch()
	watch.Start()
	lastTick := -r.cfg.ProgressInterval

	for it := 0; it < d.Iterations; it++ {
		sig := worker.NewSignal()
		workers := make([]worker.Worker, len(d.Items))
		for i, item := range d.Items {
			workers[i] = r.factory(item, d.ChunkSize, d.PoolBound, sig)
		}
		for _, w := range workers {
			w.Start(ctx)
		}

		iteration := it
		worker.WaitAll(workers, sig, func(running int) {
			if r.onProgress == nil {
				return
			}
			now := watch.Elapsed()
			if now-lastTick < r.cfg.ProgressInterval {
				return
			}
			lastTick = now
			r.onProgress(running, len(workers), iteration, now)
		}, r.cfg.PollInterval)

		// All workers are quiescent: terminal states are stable from here.
		for i, w := range workers {
			if err := w.Err(); err != nil {
				res.Err = herrors.NewWorkerFailure(i, err)
				break
			}
		}
		if res.Err != nil {
			break
		}

		var lines []int64
		for _, w := range workers {
			if dup, ok := w.(interface{ Identical() bool }); ok {
				res.AllIdentical = res.AllIdentical && dup.Identical()
			}
			if idx, ok := w.(interface{ LineCount() int64 }); ok {
				lines = append(lines, idx.LineCount())
			}
		}
		if lines != nil {
			res.LineCounts = lines
		}
		res.IterationsDone++
	}

	watch.Stop()
	res.Elapsed = watch.Elapsed()
	return res
}

// RunSweep executes every session of a benchmark plan in order. Error
// isolation is per-session: a failed session aborts its own remaining
// iterations only, and its siblings still run.
func (r *Runner) RunSweep(ctx context.Context, plan SweepPlan) []RunResult {
	results := make([]RunResult, 0, len(plan.Sessions))
	for _, d := range plan.Sessions {
		results = append(results, r.Run(ctx, d))
	}
	return results
}
