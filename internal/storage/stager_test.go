package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// trackingStore wraps an ObjectStore and records the peak number of
// concurrent fetches.
type trackingStore struct {
	inner    ObjectStore
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (ts *trackingStore) Fetch(ctx context.Context, objectPath, localPath string) error {
	cur := ts.inFlight.Add(1)
	defer ts.inFlight.Add(-1)
	for {
		max := ts.maxSeen.Load()
		if cur <= max || ts.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	return ts.inner.Fetch(ctx, objectPath, localPath)
}

func (ts *trackingStore) Exists(ctx context.Context, objectPath string) (bool, error) {
	return ts.inner.Exists(ctx, objectPath)
}

func (ts *trackingStore) Size(ctx context.Context, objectPath string) (int64, error) {
	return ts.inner.Size(ctx, objectPath)
}

func (ts *trackingStore) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	return ts.inner.ListObjects(ctx, prefix)
}

func TestStager_FetchesAll(t *testing.T) {
	store, base := newTestStore(t)
	var paths []string
	for i := 0; i < 10; i++ {
		p := fmt.Sprintf("inputs/f%d.log", i)
		putObject(t, base, p, []byte("data"))
		paths = append(paths, p)
	}

	stager := NewStager(store, 4, t.TempDir())
	res, err := stager.Stage(context.Background(), paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected per-object errors: %v", res.Errors)
	}
	if res.Fetches != 10 || res.CacheHits != 0 {
		t.Fatalf("fetches=%d hits=%d, want 10/0", res.Fetches, res.CacheHits)
	}
	for _, p := range paths {
		local, ok := res.LocalPaths[p]
		if !ok {
			t.Fatalf("object %s not staged", p)
		}
		if _, err := os.Stat(local); err != nil {
			t.Fatalf("staged file missing: %v", err)
		}
	}
}

func TestStager_CacheHitsSkipFetch(t *testing.T) {
	store, base := newTestStore(t)
	putObject(t, base, "a.log", []byte("data"))
	putObject(t, base, "b.log", []byte("data"))

	stageDir := t.TempDir()
	stager := NewStager(store, 2, stageDir)

	// Pre-stage one object by hand.
	if err := os.WriteFile(filepath.Join(stageDir, "a.log"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := stager.Stage(context.Background(), []string{"a.log", "b.log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CacheHits != 1 || res.Fetches != 1 {
		t.Fatalf("hits=%d fetches=%d, want 1/1", res.CacheHits, res.Fetches)
	}
}

func TestStager_ConcurrencyBounded(t *testing.T) {
	store, base := newTestStore(t)
	var paths []string
	for i := 0; i < 20; i++ {
		p := fmt.Sprintf("f%d.log", i)
		putObject(t, base, p, []byte("data"))
		paths = append(paths, p)
	}

	tracked := &trackingStore{inner: store}
	stager := NewStager(tracked, 3, t.TempDir())
	if _, err := stager.Stage(context.Background(), paths); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max := tracked.maxSeen.Load(); max > 3 {
		t.Fatalf("observed %d concurrent fetches, bound is 3", max)
	}
}

func TestStager_PartialFailure(t *testing.T) {
	store, base := newTestStore(t)
	putObject(t, base, "present.log", []byte("data"))

	stager := NewStager(store, 2, t.TempDir())
	res, err := stager.Stage(context.Background(), []string{"present.log", "absent.log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.LocalPaths["present.log"]; !ok {
		t.Fatal("present object must be staged despite a sibling failure")
	}
	if !errors.Is(res.Errors["absent.log"], ErrObjectNotFound) {
		t.Fatalf("absent object error = %v, want ErrObjectNotFound", res.Errors["absent.log"])
	}
}

func TestStager_EmptyBatch(t *testing.T) {
	store, _ := newTestStore(t)
	stager := NewStager(store, 2, t.TempDir())

	res, err := stager.Stage(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.LocalPaths) != 0 || len(res.Errors) != 0 {
		t.Fatalf("empty batch must yield an empty result: %+v", res)
	}
}
