package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Stager fetches session inputs from object storage into a local staging
// directory before workers run, so measured sessions read only local files.
// Already-staged objects are reused.
type Stager struct {
	store       ObjectStore
	concurrency int
	stageDir    string
}

// StageResult contains the outcome of staging a batch of inputs.
type StageResult struct {
	LocalPaths map[string]string
	Errors     map[string]error
	CacheHits  int
	Fetches    int
}

// NewStager creates a stager.
// store: the ObjectStore to fetch from
// concurrency: maximum number of parallel fetches
// stageDir: directory holding staged files
func NewStager(store ObjectStore, concurrency int, stageDir string) *Stager {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Stager{
		store:       store,
		concurrency: concurrency,
		stageDir:    stageDir,
	}
}

// Stage fetches the given objects in parallel, bounded by the stager's
// concurrency. Objects already present in the staging directory count as
// cache hits and are not fetched again.
func (s *Stager) Stage(ctx context.Context, objectPaths []string) (*StageResult, error) {
	result := &StageResult{
		LocalPaths: make(map[string]string),
		Errors:     make(map[string]error),
	}
	if len(objectPaths) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(s.stageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	type pending struct {
		path      string
		localPath string
	}
	var queue []pending
	for _, p := range objectPaths {
		local := s.localPath(p)
		if _, err := os.Stat(local); err == nil {
			result.LocalPaths[p] = local
			result.CacheHits++
			continue
		}
		queue = append(queue, pending{path: p, localPath: local})
	}

	sem := semaphore.NewWeighted(int64(s.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, p := range queue {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors[p.path] = fmt.Errorf("semaphore acquire failed: %w", err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(path, local string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := s.store.Fetch(ctx, path, local); err != nil {
				mu.Lock()
				result.Errors[path] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.LocalPaths[path] = local
			result.Fetches++
			mu.Unlock()
		}(p.path, p.localPath)
	}

	wg.Wait()

	return result, nil
}

// localPath returns the staging path for an object. Object paths are
// flattened to their base name to keep the staging directory shallow.
func (s *Stager) localPath(objectPath string) string {
	sanitized := filepath.Base(filepath.FromSlash(objectPath))
	return filepath.Join(s.stageDir, sanitized)
}
