// Package session turns raw invocation parameters into structured session
// descriptors, drives the configured worker set to quiescence, and computes
// the throughput report for each run.
package session

import (
	"context"

	"github.com/google/uuid"

	herrors "github.com/filemark/filemark/internal/errors"
)

// SweepPoolSizes is the fixed list of worker-pool bounds a benchmark sweep
// exercises, in run order.
var SweepPoolSizes = []int{1, 2, 4, 8, 16, 32, 64, 128}

// SweepIterations is the number of measured repetitions per sweep session.
const SweepIterations = 5

// WorkItem names one unit of work. Primary is the input every worker reads;
// Secondary is the comparison target for pairwise duplicate checks and
// empty for indexing work.
type WorkItem struct {
	Primary   string
	Secondary string
}

// ByteOracle reports the total size in bytes of a list of input paths. The
// manifest catalog implements it; tests substitute fixed answers.
type ByteOracle interface {
	TotalBytes(ctx context.Context, paths []string) (int64, error)
}

// Descriptor describes one configured run: a fixed worker set (index i of
// Items denotes one worker), the per-worker chunk size, the worker-pool
// bound (0 = default), the iteration count, and the precomputed byte total
// used for throughput reporting.
type Descriptor struct {
	ID         string
	Items      []WorkItem
	ChunkSize  int
	PoolBound  int
	Iterations int
	TotalBytes int64
}

// SweepPlan is an ordered sequence of descriptors sharing the same work
// items but differing pool bounds. Benchmark mode only.
type SweepPlan struct {
	Sessions []Descriptor
}

// BuildNormal constructs the single session of a normal run: one iteration,
// byte total summed over the primary input list.
func BuildNormal(ctx context.Context, items []WorkItem, poolBound, chunkSize int, oracle ByteOracle) (Descriptor, error) {
	if err := validateItems(items); err != nil {
		return Descriptor{}, err
	}
	if poolBound < 0 {
		poolBound = 0
	}

	total, err := oracle.TotalBytes(ctx, primaries(items))
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		ID:         uuid.NewString(),
		Items:      items,
		ChunkSize:  chunkSize,
		PoolBound:  poolBound,
		Iterations: 1,
		TotalBytes: total,
	}, nil
}

// BuildSweep constructs the benchmark plan: one session per pool size in
// SweepPoolSizes, each with SweepIterations iterations, all sharing the
// same work items and byte total.
func BuildSweep(ctx context.Context, items []WorkItem, chunkSize int, oracle ByteOracle) (SweepPlan, error) {
	if err := validateItems(items); err != nil {
		return SweepPlan{}, err
	}

	total, err := oracle.TotalBytes(ctx, primaries(items))
	if err != nil {
		return SweepPlan{}, err
	}

	plan := SweepPlan{Sessions: make([]Descriptor, 0, len(SweepPoolSizes))}
	for _, bound := range SweepPoolSizes {
		plan.Sessions = append(plan.Sessions, Descriptor{
			ID:         uuid.NewString(),
			Items:      items,
			ChunkSize:  chunkSize,
			PoolBound:  bound,
			Iterations: SweepIterations,
			TotalBytes: total,
		})
	}
	return plan, nil
}

func validateItems(items []WorkItem) error {
	if len(items) == 0 {
		return herrors.New(herrors.ErrCategorySession, herrors.CodeEmptySession, "session has no work items")
	}
	for i, it := range items {
		if it.Primary == "" {
			return herrors.New(herrors.ErrCategorySession, herrors.CodeEmptySession, "work item has an empty primary path").WithWorkerIndex(i)
		}
	}
	return nil
}

func primaries(items []WorkItem) []string {
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Primary
	}
	return paths
}
