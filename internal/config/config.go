// Package config provides unified configuration for Filemark runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents the kind of measurement a run performs.
type Mode string

const (
	ModeIndex    Mode = "index"
	ModeDupCheck Mode = "dupcheck"
)

// Config holds the unified configuration for Filemark runs.
type Config struct {
	// Mode specifies the measurement to run: index, dupcheck
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Run configuration
	Run RunConfig `json:"run" yaml:"run"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// RunConfig holds per-run tuning knobs.
type RunConfig struct {
	// ChunkSizeKB is the read chunk size in kilobytes (default 256)
	ChunkSizeKB int `json:"chunk_size_kb" yaml:"chunk_size_kb"`

	// PoolBound is the worker-pool bound for chunk comparisons (0 = number of CPUs)
	PoolBound int `json:"pool_bound" yaml:"pool_bound"`

	// PollInterval bounds the completion waiter's sleep
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// ProgressInterval is the minimum spacing between progress ticks
	ProgressInterval time.Duration `json:"progress_interval" yaml:"progress_interval"`

	// StageConcurrency is the number of parallel input fetches from object storage
	StageConcurrency int `json:"stage_concurrency" yaml:"stage_concurrency"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// StageDir is the directory inputs are staged into before a run
	StageDir string `json:"stage_dir" yaml:"stage_dir"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local runs.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeIndex,
		DataDir: "./data/filemark",
		Run: RunConfig{
			ChunkSizeKB:      256,
			PoolBound:        0,
			PollInterval:     100 * time.Millisecond,
			ProgressInterval: time.Second,
			StageConcurrency: 4,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/filemark"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Storage.StageDir == "" {
		c.Storage.StageDir = filepath.Join(c.DataDir, "stage")
	}
}

// ManifestPath returns the path of the input catalog database.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.DataDir, "manifest.db")
}

// ChunkSize returns the configured chunk size in bytes.
func (c *Config) ChunkSize() int {
	return c.Run.ChunkSizeKB * 1024
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeIndex, ModeDupCheck:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be index or dupcheck)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Run.ChunkSizeKB < 1 || c.Run.ChunkSizeKB > 64*1024 {
		return fmt.Errorf("run.chunk_size_kb must be between 1 and 65536, got %d", c.Run.ChunkSizeKB)
	}

	if c.Run.PoolBound < 0 {
		return fmt.Errorf("run.pool_bound must not be negative, got %d", c.Run.PoolBound)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the FILEMARK_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FILEMARK_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("FILEMARK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Run configuration
	if v := os.Getenv("FILEMARK_CHUNK_SIZE_KB"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Run.ChunkSizeKB)
	}
	if v := os.Getenv("FILEMARK_POOL_BOUND"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Run.PoolBound)
	}
	if v := os.Getenv("FILEMARK_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Run.PollInterval = d
		}
	}
	if v := os.Getenv("FILEMARK_PROGRESS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Run.ProgressInterval = d
		}
	}
	if v := os.Getenv("FILEMARK_STAGE_CONCURRENCY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Run.StageConcurrency)
	}

	// Storage configuration
	if v := os.Getenv("FILEMARK_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("FILEMARK_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FILEMARK_STAGE_DIR"); v != "" {
		cfg.Storage.StageDir = v
	}
	if v := os.Getenv("FILEMARK_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("FILEMARK_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("FILEMARK_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Storage.Path,
		c.Storage.StageDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
