// Package main implements the filemark-bench binary: a fixed pool-size
// sweep (1 through 128 workers, five iterations each) over a set of inputs,
// reporting throughput per pool size.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/filemark/filemark/internal/app"
	"github.com/filemark/filemark/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		chunkKB     int
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&mode, "mode", "", "Measurement mode: index, dupcheck")
	flag.IntVar(&chunkKB, "chunk-kb", 0, "Read chunk size in kilobytes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Filemark Bench - Pool-Size Sweep Benchmark\n\n")
		fmt.Fprintf(os.Stderr, "Usage: filemark-bench [options] <input>...\n\n")
		fmt.Fprintf(os.Stderr, "Runs the full sweep (pool bounds 1,2,4,8,16,32,64,128, five\n")
		fmt.Fprintf(os.Stderr, "iterations each) over the given inputs. The pool bound from the\n")
		fmt.Fprintf(os.Stderr, "configuration is ignored; the sweep supplies its own.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  filemark-bench --mode dupcheck '/data/a.bin;/data/b.bin'\n")
		fmt.Fprintf(os.Stderr, "  filemark-bench --mode index /data/*.log\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("filemark-bench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configFile, dataDir, mode, chunkKB)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Close()

	reports, results, err := application.RunBenchmark(context.Background(), flag.Args())
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	log.Printf("Sweep complete: %d sessions", len(reports))
	log.Printf("%8s %12s %14s %12s", "pool", "elapsed", "bytes", "MB/s")
	failed := 0
	for i, rep := range reports {
		if results[i].Err != nil {
			failed++
			log.Printf("%8d %25s %v", rep.PoolBound, "FAILED:", results[i].Err)
			continue
		}
		log.Printf("%8d %12v %14d %12.2f", rep.PoolBound, rep.Elapsed, rep.TotalBytes, rep.ThroughputMBps)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, mode string, chunkKB int) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if chunkKB > 0 {
		cfg.Run.ChunkSizeKB = chunkKB
	}

	return cfg, nil
}
