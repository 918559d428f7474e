// Package storage defines the blob store used to archive raw vote documents.
// Implementations live in the memory, local and gcs subpackages so the
// pipeline stays independent of where the bytes end up.
package storage

import (
	"context"
	"io"
)

// BlobStore saves one object and returns a URI describing where it landed.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, r io.Reader) (string, error)
}

// Discard is a BlobStore that drops everything; used when archiving is off.
type Discard struct{}

// PutObject implements BlobStore.
func (Discard) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", nil
}
