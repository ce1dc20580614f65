// Package blob abstracts the object store used for source files, reject
// artifacts, and backups. The production implementation talks to S3; an
// in-memory implementation backs tests and local development.
package blob

import (
	"context"
	"io"
)

// Store is the narrow object-store surface the ingestion pipeline needs.
type Store interface {
	// Get returns a reader for the object at key. The caller must close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes body to key, overwriting any existing object.
	Put(ctx context.Context, key string, body []byte) error

	// List returns up to max keys under prefix.
	List(ctx context.Context, prefix string, max int) ([]string, error)
}
