package session

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	herrors "github.com/filemark/filemark/internal/errors"
	"github.com/filemark/filemark/internal/worker"
)

// TestProperty_SweepShape validates that a benchmark plan always has the
// fixed sweep shape regardless of the input set: eight sessions with pool
// bounds 1,2,4,8,16,32,64,128 in order, five iterations each, all sharing
// the same work items and byte total.
func TestProperty_SweepShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("sweep shape is fixed for any input set", prop.ForAll(
		func(itemCount int, total int64) bool {
			items := make([]WorkItem, itemCount)
			for i := range items {
				items[i] = WorkItem{Primary: "p", Secondary: "s"}
			}

			plan, err := BuildSweep(context.Background(), items, 64*1024, &fixedOracle{total: total})
			if err != nil {
				return false
			}
			if len(plan.Sessions) != len(SweepPoolSizes) {
				return false
			}
			for i, d := range plan.Sessions {
				if d.PoolBound != SweepPoolSizes[i] {
					return false
				}
				if d.Iterations != SweepIterations {
					return false
				}
				if d.TotalBytes != total {
					return false
				}
				if len(d.Items) != itemCount {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("session IDs are unique within a plan", prop.ForAll(
		func(itemCount int) bool {
			items := make([]WorkItem, itemCount)
			for i := range items {
				items[i] = WorkItem{Primary: "p"}
			}
			plan, err := BuildSweep(context.Background(), items, 1024, &fixedOracle{total: 1})
			if err != nil {
				return false
			}
			seen := make(map[string]bool)
			for _, d := range plan.Sessions {
				if d.ID == "" || seen[d.ID] {
					return false
				}
				seen[d.ID] = true
			}
			return true
		},
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}

// TestProperty_FirstErrorDeterminism validates that the session error is
// always the lowest-index failure, independent of which worker finishes
// first in wall-clock time.
func TestProperty_FirstErrorDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("lowest failing index wins regardless of timing", prop.ForAll(
		func(failMask uint8, delays []int8) bool {
			const n = 8
			wantIndex := -1
			for i := 0; i < n; i++ {
				if failMask&(1<<i) != 0 {
					wantIndex = i
					break
				}
			}

			items := make([]WorkItem, n)
			for i := range items {
				items[i] = WorkItem{Primary: "p"}
			}

			idx := 0
			r := NewRunner(func(item WorkItem, chunkSize, poolBound int, sig *worker.Signal) worker.Worker {
				i := idx
				idx++
				delay := time.Millisecond
				if len(delays) > 0 {
					d := int(delays[i%len(delays)])
					if d < 0 {
						d = -d
					}
					delay = time.Duration(d%5+1) * time.Millisecond
				}
				var fail error
				if failMask&(1<<i) != 0 {
					fail = herrors.New(herrors.ErrCategoryWorker, herrors.CodeReadFailed, "read failed")
				}
				return &fakeWorker{delay: delay, fail: fail, sig: sig}
			}, fastConfig(), nil)

			res := r.Run(context.Background(), Descriptor{ID: "prop", Iterations: 1, Items: items})
			if wantIndex < 0 {
				return res.Err == nil
			}
			return res.Err != nil && herrors.GetWorkerIndex(res.Err) == wantIndex
		},
		gen.UInt8(),
		gen.SliceOf(gen.Int8()),
	))

	properties.TestingRun(t)
}
