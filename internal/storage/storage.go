// Package storage provides the object-store abstraction runs read their
// inputs through. Implementations include S3 and the local filesystem.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrFetchFailed    = errors.New("fetch failed")
)

// ObjectStore abstracts the read side of object storage. The harness never
// writes objects: inputs are fetched to the local filesystem before workers
// touch them.
type ObjectStore interface {
	// Fetch copies an object to the local filesystem.
	// objectPath is the source path in object storage.
	// localPath is the destination path on the local filesystem.
	Fetch(ctx context.Context, objectPath, localPath string) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Size returns the size of an object in bytes.
	Size(ctx context.Context, objectPath string) (int64, error)

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
