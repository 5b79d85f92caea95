package smbfs

import "context"

// FileStore is the physical file surface the reconciliation engine probes and
// mutates. The production implementation talks SMB; tests substitute a fake.
type FileStore interface {
	// Exists reports whether a file is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// FileSize returns the size of the file at path, or nil when it does not
	// exist. Errors are reserved for transport failures.
	FileSize(ctx context.Context, path string) (*int64, error)
	// MoveFiles relocates every file matching srcPattern into dstDir, keeping
	// base names. An existing file at a destination is an error.
	MoveFiles(ctx context.Context, srcPattern, dstDir string) error
	// DeleteFiles removes every file matching pattern and reports whether
	// anything was deleted.
	DeleteFiles(ctx context.Context, pattern string) (bool, error)
}
