// Package blobstore abstracts the object storage used for collection
// backups. Implementations exist for the local filesystem, in-memory
// testing, Amazon S3, and MinIO.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store is a flat key/value object store.
type Store interface {
	// Put writes a blob under key, replacing any existing one.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens a blob for reading. The caller must close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
