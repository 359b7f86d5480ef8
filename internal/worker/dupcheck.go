package worker

import (
	"bytes"
	"context"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"

	herrors "github.com/filemark/filemark/internal/errors"
)

// DupCheckWorker compares two files chunk by chunk and reports whether they
// are byte-for-byte identical. Chunks are read sequentially from both files;
// the comparisons fan out across a bounded pool of goroutines. Each pair of
// chunks is prehashed with murmur3-128 so a mismatch is detected without a
// full byte scan; equal digests are confirmed byte-for-byte.
type DupCheckWorker struct {
	lifecycle

	pathA     string
	pathB     string
	chunkSize int
	poolBound int

	identical bool
}

// NewDupCheckWorker creates a worker that will compare pathA against pathB.
// poolBound limits concurrent chunk comparisons; zero or negative means one
// goroutine per CPU. The signal may be nil when no waiter is listening.
func NewDupCheckWorker(pathA, pathB string, chunkSize, poolBound int, sig *Signal) *DupCheckWorker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if poolBound <= 0 {
		poolBound = runtime.NumCPU()
	}
	w := &DupCheckWorker{
		pathA:     pathA,
		pathB:     pathB,
		chunkSize: chunkSize,
		poolBound: poolBound,
	}
	w.signal = sig
	return w
}

// Start begins the comparison asynchronously. It must be called exactly once.
func (w *DupCheckWorker) Start(ctx context.Context) {
	if !w.begin(herrors.New(herrors.ErrCategoryWorker, herrors.CodeDoubleStart, "duplicate check worker started twice: "+w.pathA)) {
		return
	}
	go func() {
		identical, err := w.compare(ctx)
		w.identical = identical
		w.finish(err)
	}()
}

// Identical reports whether the two files matched. Only meaningful after
// Running() has become false with a nil Err().
func (w *DupCheckWorker) Identical() bool {
	return w.identical
}

func (w *DupCheckWorker) compare(ctx context.Context) (bool, error) {
	infoA, err := os.Stat(w.pathA)
	if err != nil {
		return false, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathA, err)
	}
	infoB, err := os.Stat(w.pathB)
	if err != nil {
		return false, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathB, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	if infoA.Size() == 0 {
		return true, nil
	}

	fa, err := os.Open(w.pathA)
	if err != nil {
		return false, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathA, err)
	}
	defer fa.Close()
	fb, err := os.Open(w.pathB)
	if err != nil {
		return false, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathB, err)
	}
	defer fb.Close()

	sem := make(chan struct{}, w.poolBound)
	var wg sync.WaitGroup
	var mismatch atomic.Bool

	readErr := func() error {
		for !mismatch.Load() {
			if err := ctx.Err(); err != nil {
				return err
			}

			bufA := make([]byte, w.chunkSize)
			bufB := make([]byte, w.chunkSize)

			na, errA := io.ReadFull(fa, bufA)
			nb, errB := io.ReadFull(fb, bufB)
			if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
				return herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathA, errA)
			}
			if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
				return herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.pathB, errB)
			}
			if na != nb {
				// Equal sizes were confirmed up front; a length skew here
				// means one file changed underneath us.
				mismatch.Store(true)
				return nil
			}
			if na == 0 {
				return nil
			}

			chunkA := bufA[:na]
			chunkB := bufB[:nb]

			sem <- struct{}{}
			wg.Add(1)
			go func(a, b []byte) {
				defer wg.Done()
				defer func() { <-sem }()

				ha1, ha2 := murmur3.Sum128(a)
				hb1, hb2 := murmur3.Sum128(b)
				if ha1 != hb1 || ha2 != hb2 {
					mismatch.Store(true)
					return
				}
				// Digest collision guard: confirm byte-for-byte.
				if !bytes.Equal(a, b) {
					mismatch.Store(true)
				}
			}(chunkA, chunkB)

			if errA == io.EOF || errA == io.ErrUnexpectedEOF {
				return nil
			}
		}
		return nil
	}()

	wg.Wait()

	if readErr != nil {
		return false, readErr
	}
	return !mismatch.Load(), nil
}
