// Package app wires configuration, storage, the input catalog, and the
// session machinery into runnable Filemark measurements.
package app

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/filemark/filemark/internal/config"
	"github.com/filemark/filemark/internal/manifest"
	"github.com/filemark/filemark/internal/observability"
	"github.com/filemark/filemark/internal/session"
	"github.com/filemark/filemark/internal/storage"
	"github.com/filemark/filemark/internal/worker"
)

// App owns the shared resources of a Filemark process.
type App struct {
	cfg *config.Config

	store   storage.ObjectStore
	stager  *storage.Stager
	catalog manifest.Catalog
	stats   *observability.RunStats
}

// New creates an App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	a := &App{
		cfg:   cfg,
		stats: observability.NewRunStats(),
	}
	if err := a.initSharedResources(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// initSharedResources initializes storage, the stager, and the input catalog.
func (a *App) initSharedResources() error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.store, err = storage.NewLocalStore(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		a.store, err = storage.NewS3Store(context.Background(), a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("Storage initialized: type=%s", a.cfg.Storage.Type)

	a.stager = storage.NewStager(a.store, a.cfg.Run.StageConcurrency, a.cfg.Storage.StageDir)

	a.catalog, err = manifest.NewCatalog(a.cfg.ManifestPath())
	if err != nil {
		return fmt.Errorf("failed to open input catalog: %w", err)
	}
	log.Printf("Input catalog initialized: %s", a.cfg.ManifestPath())

	return nil
}

// Stats returns the process-wide run statistics tracker.
func (a *App) Stats() *observability.RunStats {
	return a.stats
}

// ParseItems turns command-line input arguments into work items. Duplicate
// checks take "primary;secondary" pairs, indexing takes bare paths.
func (a *App) ParseItems(args []string) ([]session.WorkItem, error) {
	items := make([]session.WorkItem, 0, len(args))
	for _, arg := range args {
		switch a.cfg.Mode {
		case config.ModeDupCheck:
			parts := strings.SplitN(arg, ";", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return nil, fmt.Errorf("dupcheck input %q must be a primary;secondary pair", arg)
			}
			items = append(items, session.WorkItem{Primary: parts[0], Secondary: parts[1]})
		default:
			items = append(items, session.WorkItem{Primary: arg})
		}
	}
	return items, nil
}

// StageItems fetches s3-backed inputs into the staging directory and rewrites
// the items to point at the staged copies. Local runs pass through untouched.
func (a *App) StageItems(ctx context.Context, items []session.WorkItem) ([]session.WorkItem, error) {
	if a.cfg.Storage.Type != "s3" {
		return items, nil
	}

	var objects []string
	for _, it := range items {
		objects = append(objects, it.Primary)
		if it.Secondary != "" {
			objects = append(objects, it.Secondary)
		}
	}

	res, err := a.stager.Stage(ctx, objects)
	if err != nil {
		return nil, fmt.Errorf("failed to stage inputs: %w", err)
	}
	for path, ferr := range res.Errors {
		return nil, fmt.Errorf("failed to stage %s: %w", path, ferr)
	}
	log.Printf("Staged %d inputs (%d cache hits)", res.Fetches, res.CacheHits)

	staged := make([]session.WorkItem, len(items))
	for i, it := range items {
		staged[i] = session.WorkItem{Primary: res.LocalPaths[it.Primary]}
		if it.Secondary != "" {
			staged[i].Secondary = res.LocalPaths[it.Secondary]
		}
	}
	return staged, nil
}

// workerFactory builds the mode-appropriate worker for one item.
func (a *App) workerFactory() session.Factory {
	mode := a.cfg.Mode
	return func(item session.WorkItem, chunkSize, poolBound int, sig *worker.Signal) worker.Worker {
		if mode == config.ModeDupCheck {
			return worker.NewDupCheckWorker(item.Primary, item.Secondary, chunkSize, poolBound, sig)
		}
		return worker.NewLineCountWorker(item.Primary, chunkSize, sig)
	}
}

func (a *App) runner() *session.Runner {
	cfg := session.RunnerConfig{
		PollInterval:     a.cfg.Run.PollInterval,
		ProgressInterval: a.cfg.Run.ProgressInterval,
	}
	return session.NewRunner(a.workerFactory(), cfg, a.progressLogger())
}

func (a *App) progressLogger() session.ProgressFunc {
	return func(running, total, iteration int, elapsed time.Duration) {
		a.stats.RecordTick()
		log.Printf("progress: %d/%d workers running (iteration %d, elapsed %v)", running, total, iteration+1, elapsed)
	}
}

// Run executes one normal measurement over the given inputs and returns its
// report. Workers in a failed session abort the run; the error carries the
// index of the first failed item.
func (a *App) Run(ctx context.Context, args []string) (session.Report, session.RunResult, error) {
	items, err := a.ParseItems(args)
	if err != nil {
		return session.Report{}, session.RunResult{}, err
	}
	items, err = a.StageItems(ctx, items)
	if err != nil {
		return session.Report{}, session.RunResult{}, err
	}

	poolBound := a.cfg.Run.PoolBound
	if poolBound == 0 {
		poolBound = runtime.NumCPU()
	}

	d, err := session.BuildNormal(ctx, items, poolBound, a.cfg.ChunkSize(), a.catalog)
	if err != nil {
		return session.Report{}, session.RunResult{}, err
	}

	log.Printf("Session %s: %d items, pool bound %d, %d bytes", d.ID, len(d.Items), d.PoolBound, d.TotalBytes)
	res := a.runner().Run(ctx, d)
	if res.Err != nil {
		return session.Report{}, res, res.Err
	}

	rep, err := session.BuildReport(d, res)
	if err != nil {
		return session.Report{}, res, err
	}
	a.stats.RecordSession(rep.PoolBound, rep.TotalBytes, rep.Elapsed, rep.ThroughputMBps)
	return rep, res, nil
}

// RunBenchmark executes the full pool-size sweep over the given inputs.
// Sessions are isolated: a failed session yields an error report and its
// siblings still run. Reports come back in sweep order.
func (a *App) RunBenchmark(ctx context.Context, args []string) ([]session.Report, []session.RunResult, error) {
	items, err := a.ParseItems(args)
	if err != nil {
		return nil, nil, err
	}
	items, err = a.StageItems(ctx, items)
	if err != nil {
		return nil, nil, err
	}

	plan, err := session.BuildSweep(ctx, items, a.cfg.ChunkSize(), a.catalog)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("Benchmark sweep: %d sessions over %d items", len(plan.Sessions), len(items))
	runner := a.runner()

	reports := make([]session.Report, 0, len(plan.Sessions))
	results := make([]session.RunResult, 0, len(plan.Sessions))
	for _, d := range plan.Sessions {
		res := runner.Run(ctx, d)
		results = append(results, res)
		if res.Err != nil {
			log.Printf("Session %s (pool %d) failed: %v", d.ID, d.PoolBound, res.Err)
			reports = append(reports, session.Report{SessionID: d.ID, PoolBound: d.PoolBound})
			continue
		}
		rep, err := session.BuildReport(d, res)
		if err != nil {
			log.Printf("Session %s (pool %d): %v", d.ID, d.PoolBound, err)
			reports = append(reports, session.Report{SessionID: d.ID, PoolBound: d.PoolBound})
			continue
		}
		a.stats.RecordSession(rep.PoolBound, rep.TotalBytes, rep.Elapsed, rep.ThroughputMBps)
		reports = append(reports, rep)
	}
	return reports, results, nil
}

// Close releases shared resources.
func (a *App) Close() {
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			log.Printf("Input catalog close error: %v", err)
		}
		a.catalog = nil
	}
}
