package observability

import (
	"sync"
	"testing"
	"time"
)

func TestRunStats_RecordAndSnapshot(t *testing.T) {
	rs := NewRunStats()

	rs.RecordSession(4, 1000, time.Second, 50.0)
	rs.RecordSession(4, 2000, 2*time.Second, 80.0)
	rs.RecordSession(1, 500, time.Second, 10.0)

	snap := rs.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d pool entries, want 2", len(snap))
	}
	// Sorted by pool bound ascending.
	if snap[0].PoolBound != 1 || snap[1].PoolBound != 4 {
		t.Fatalf("snapshot not sorted by pool bound: %+v", snap)
	}
	p4 := snap[1]
	if p4.Runs != 2 {
		t.Errorf("runs = %d, want 2", p4.Runs)
	}
	if p4.TotalBytes != 3000 {
		t.Errorf("total bytes = %d, want 3000", p4.TotalBytes)
	}
	if p4.TotalElapsed != 3*time.Second {
		t.Errorf("total elapsed = %v, want 3s", p4.TotalElapsed)
	}
	if p4.BestMBps != 80.0 {
		t.Errorf("best rate = %v, want 80.0", p4.BestMBps)
	}
}

func TestRunStats_BestRateSurvivesSlowerRuns(t *testing.T) {
	rs := NewRunStats()
	rs.RecordSession(8, 1000, time.Second, 90.0)
	rs.RecordSession(8, 1000, time.Second, 30.0)

	snap := rs.Snapshot()
	if snap[0].BestMBps != 90.0 {
		t.Fatalf("best rate = %v, want 90.0", snap[0].BestMBps)
	}
}

func TestRunStats_Ticks(t *testing.T) {
	rs := NewRunStats()
	for i := 0; i < 5; i++ {
		rs.RecordTick()
	}
	if rs.Ticks() != 5 {
		t.Fatalf("ticks = %d, want 5", rs.Ticks())
	}
}

func TestRunStats_ConcurrentRecording(t *testing.T) {
	rs := NewRunStats()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(bound int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rs.RecordSession(bound%4, 10, time.Millisecond, 1.0)
				rs.RecordTick()
			}
		}(i)
	}
	wg.Wait()

	var runs int64
	for _, s := range rs.Snapshot() {
		runs += s.Runs
	}
	if runs != 1600 {
		t.Fatalf("total runs = %d, want 1600", runs)
	}
	if rs.Ticks() != 1600 {
		t.Fatalf("ticks = %d, want 1600", rs.Ticks())
	}
}

func TestRunStats_SnapshotIsCopy(t *testing.T) {
	rs := NewRunStats()
	rs.RecordSession(2, 100, time.Second, 5.0)

	snap := rs.Snapshot()
	snap[0].Runs = 999

	if rs.Snapshot()[0].Runs != 1 {
		t.Fatal("mutating a snapshot must not affect the tracker")
	}
}
