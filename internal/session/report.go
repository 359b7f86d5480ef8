package session

import (
	"time"

	herrors "github.com/filemark/filemark/internal/errors"
)

// ErrUndefinedRate is returned when a throughput rate cannot be computed
// because no time elapsed.
var ErrUndefinedRate = herrors.New(herrors.ErrCategorySession, herrors.CodeUndefinedRate, "throughput undefined: no elapsed time")

// Report is the per-session summary a run prints after quiescence.
type Report struct {
	SessionID      string
	PoolBound      int
	Iterations     int
	TotalBytes     int64
	Elapsed        time.Duration
	ThroughputMBps float64
}

// ThroughputMBps converts a byte total and an elapsed duration into a
// megabytes-per-second rate (1 MB = 1e6 bytes). Zero or negative elapsed
// time yields ErrUndefinedRate rather than a division by zero.
func ThroughputMBps(totalBytes int64, elapsed time.Duration) (float64, error) {
	if elapsed <= 0 {
		return 0, ErrUndefinedRate
	}
	return float64(totalBytes) / elapsed.Seconds() / 1e6, nil
}

// BuildReport summarizes a completed session. The byte total counts every
// completed iteration: each repetition re-reads the full input set, so the
// work done scales with IterationsDone.
func BuildReport(d Descriptor, res RunResult) (Report, error) {
	processed := int64(res.IterationsDone) * d.TotalBytes
	rate, err := ThroughputMBps(processed, res.Elapsed)
	if err != nil {
		return Report{}, err
	}
	return Report{
		SessionID:      d.ID,
		PoolBound:      d.PoolBound,
		Iterations:     res.IterationsDone,
		TotalBytes:     processed,
		Elapsed:        res.Elapsed,
		ThroughputMBps: rate,
	}, nil
}
