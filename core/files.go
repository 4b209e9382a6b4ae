package core

import (
	"context"
	"io"
)

// FileStore is an opaque blob store for uploaded files, keyed by path.
// The core never inspects file content; it only hands paths around.
type FileStore interface {
	// Save stores the content of r under path and returns the stored path.
	Save(ctx context.Context, path string, r io.Reader) (string, error)
	// Open returns a reader for the blob stored under path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the blob stored under path. Missing blobs are not an error.
	Delete(ctx context.Context, path string) error
}
