// Package main implements the filemark binary: a single measurement run
// (line-count indexing or pairwise duplicate checking) over a set of inputs.
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
		poolBound   int
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&mode, "mode", "", "Measurement mode: index, dupcheck")
	flag.IntVar(&chunkKB, "chunk-kb", 0, "Read chunk size in kilobytes")
	flag.IntVar(&poolBound, "pool", 0, "Worker-pool bound for chunk comparisons (0 = number of CPUs)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Filemark - File Measurement Harness\n\n")
		fmt.Fprintf(os.Stderr, "Usage: filemark [options] <input>...\n\n")
		fmt.Fprintf(os.Stderr, "Inputs are file paths in index mode, or primary;secondary pairs\n")
		fmt.Fprintf(os.Stderr, "in dupcheck mode. With S3 storage, inputs are object keys.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  filemark --mode index /data/a.log /data/b.log\n")
		fmt.Fprintf(os.Stderr, "  filemark --mode dupcheck '/data/a.bin;/data/b.bin'\n")
		fmt.Fprintf(os.Stderr, "  filemark --config /etc/filemark/config.yaml /data/a.log\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FILEMARK_MODE            Measurement mode (index, dupcheck)\n")
		fmt.Fprintf(os.Stderr, "  FILEMARK_DATA_DIR        Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  FILEMARK_STORAGE_TYPE    Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  FILEMARK_S3_BUCKET       S3 bucket for inputs\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("filemark version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configFile, dataDir, mode, chunkKB, poolBound)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Close()

	rep, res, err := application.Run(context.Background(), flag.Args())
	if err != nil {
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}

	log.Printf("Session %s complete:", rep.SessionID)
	log.Printf("  Pool bound: %d", rep.PoolBound)
	log.Printf("  Bytes:      %d", rep.TotalBytes)
	log.Printf("  Elapsed:    %v", rep.Elapsed)
	log.Printf("  Throughput: %.2f MB/s", rep.ThroughputMBps)
	if cfg.Mode == config.ModeDupCheck {
		log.Printf("  Identical:  %v", res.AllIdentical)
	} else {
		for i, n := range res.LineCounts {
			log.Printf("  Lines[%d]:  %d", i, n)
		}
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, mode string, chunkKB, poolBound int) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if chunkKB > 0 {
		cfg.Run.ChunkSizeKB = chunkKB
	}
	if poolBound > 0 {
		cfg.Run.PoolBound = poolBound
	}

	return cfg, nil
}
