// Package persist bridges the in-memory document and a durable key-value
// store: debounced automatic saves plus explicit export/import of the whole
// document or sub-slices.
package persist

import (
	"context"
	"fmt"
)

// Store is the durable key-value collaborator. The whole document lives as
// one opaque JSON blob under a single key.
type Store interface {
	// Load returns the persisted blob, or nil when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save durably replaces the blob.
	Save(ctx context.Context, blob []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// StorageError wraps a durable read/write failure. It never reflects back
// into the in-memory document; callers log it and retry on the next cycle.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
