package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Get when nothing is stored at path.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidPath is returned for paths that are empty or escape the store root.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Storage keeps uploaded blobs addressed by a relative, slash-separated path.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	// Get returns ErrNotFound when path holds nothing. Callers close the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is a no-op for missing paths.
	Delete(ctx context.Context, path string) error
}
