package worker

import "time"

// DefaultPollInterval bounds how long the waiter sleeps when no worker
// signals early completion.
const DefaultPollInterval = 100 * time.Millisecond

// WaitAll blocks until every worker reports Running()==false.
//
// Each pass rescans the full worker set, invokes onProgress with the number
// of workers still running, and returns once that count reaches zero. When
// workers remain, the waiter parks on the shared signal with a timeout of
// pollInterval: a finishing worker wakes it early, and in the worst case
// (no signals) it wakes once per interval. There is no busy-spin path.
//
// WaitAll only detects quiescence. It never inspects worker errors and never
// calls Start; collecting per-worker errors after return is the caller's
// responsibility. Calling WaitAll on an already-quiescent set returns
// immediately.
func WaitAll(workers []Worker, sig *Signal, onProgress func(running int), pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	for {
		running := 0
		for _, w := range workers {
			if w.Running() {
				running++
			}
		}
		if onProgress != nil {
			onProgress(running)
		}
		if running == 0 {
			return
		}
		if sig != nil {
			sig.Wait(pollInterval)
		} else {
			time.Sleep(pollInterval)
		}
	}
}
