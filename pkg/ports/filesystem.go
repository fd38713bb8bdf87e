package ports

import "io"

// ReadSeekCloser is an opened media file.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Open opens a file for random-access reading.
	Open(path string) (ReadSeekCloser, error)

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)
}
