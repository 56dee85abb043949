package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	RelativePath string
}

// ReaderAtCloser combines random-access reads with resource cleanup.
// Section hashing needs io.ReaderAt; *os.File satisfies this directly.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// Backend defines the read-only interface over an extracted bundle tree.
// The comparator never mutates its inputs, so there is no write surface.
type Backend interface {
	// List returns all entries under the specified directory recursively
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for sequential reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Open opens a file for random-access reading
	Open(ctx context.Context, path string) (ReaderAtCloser, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Close releases any resources held by the backend
	Close() error
}
