package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "resize" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"zero chunk size", func(c *Config) { c.Run.ChunkSizeKB = 0 }},
		{"negative pool bound", func(c *Config) { c.Run.PoolBound = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation to fail")
			}
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filemark.yaml")
	body := []byte("mode: dupcheck\ndata_dir: /tmp/fm\nrun:\n  chunk_size_kb: 64\n  pool_bound: 8\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != ModeDupCheck || cfg.DataDir != "/tmp/fm" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Run.ChunkSizeKB != 64 || cfg.Run.PoolBound != 8 {
		t.Fatalf("run values not applied: %+v", cfg.Run)
	}
	// Unset fields keep their defaults.
	if cfg.Run.PollInterval != 100*time.Millisecond {
		t.Fatalf("default poll interval lost: %v", cfg.Run.PollInterval)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("FILEMARK_MODE", "dupcheck")
	t.Setenv("FILEMARK_POOL_BOUND", "16")
	t.Setenv("FILEMARK_PROGRESS_INTERVAL", "2s")
	t.Setenv("FILEMARK_STORAGE_TYPE", "s3")
	t.Setenv("FILEMARK_S3_BUCKET", "bench-inputs")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Mode != ModeDupCheck {
		t.Errorf("mode = %s", cfg.Mode)
	}
	if cfg.Run.PoolBound != 16 {
		t.Errorf("pool bound = %d", cfg.Run.PoolBound)
	}
	if cfg.Run.ProgressInterval != 2*time.Second {
		t.Errorf("progress interval = %v", cfg.Run.ProgressInterval)
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "bench-inputs" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestResolveFillsDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/filemark"
	cfg.Resolve()

	if cfg.Storage.Path != filepath.Join("/var/lib/filemark", "storage") {
		t.Errorf("storage path = %s", cfg.Storage.Path)
	}
	if cfg.Storage.StageDir != filepath.Join("/var/lib/filemark", "stage") {
		t.Errorf("stage dir = %s", cfg.Storage.StageDir)
	}
	if cfg.ManifestPath() != filepath.Join("/var/lib/filemark", "manifest.db") {
		t.Errorf("manifest path = %s", cfg.ManifestPath())
	}
}
