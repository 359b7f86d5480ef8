package benchmark

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/filemark/filemark/internal/storage"
	"github.com/joho/godotenv"
)

// getBenchmarkStore returns an ObjectStore and an object prefix for a
// benchmark to work under. It respects FILEMARK_STORAGE_TYPE=s3 from .env
// or the environment; otherwise it falls back to a local temp-dir store.
// For S3 the prefix is "bench/<benchName>/<timestamp>"; the cleanup
// function is a no-op there (buckets used for benchmarks are lifecycled
// externally).
func getBenchmarkStore(b *testing.B, benchName string) (storage.ObjectStore, string, func()) {
	// Try loading .env from project root (../../.env relative to test/benchmark)
	_ = godotenv.Load("../../.env")

	storageType := os.Getenv("FILEMARK_STORAGE_TYPE")

	if storageType == "s3" {
		if v := os.Getenv("FILEMARK_AWS_ACCESS_KEY_ID"); v != "" {
			os.Setenv("AWS_ACCESS_KEY_ID", v)
		}
		if v := os.Getenv("FILEMARK_AWS_SECRET_ACCESS_KEY"); v != "" {
			os.Setenv("AWS_SECRET_ACCESS_KEY", v)
		}

		bucket := os.Getenv("FILEMARK_S3_BUCKET")
		region := os.Getenv("FILEMARK_S3_REGION")
		endpoint := os.Getenv("FILEMARK_S3_ENDPOINT")

		if bucket == "" {
			b.Fatal("FILEMARK_S3_BUCKET must be set when FILEMARK_STORAGE_TYPE=s3")
		}

		cfg := storage.DefaultS3Config()
		if region != "" {
			cfg.Region = region
		}
		if endpoint != "" {
			cfg.Endpoint = endpoint
			cfg.UsePathStyle = true
		}

		store, err := storage.NewS3Store(context.Background(), bucket, cfg)
		if err != nil {
			b.Fatalf("failed to create S3 store: %v", err)
		}

		prefix := fmt.Sprintf("bench/%s/%d", benchName, time.Now().UnixNano())
		return store, prefix, func() {}
	}

	dir := b.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		b.Fatalf("failed to create local store: %v", err)
	}
	return store, "", func() {}
}
