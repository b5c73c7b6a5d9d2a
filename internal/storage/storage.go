// Package storage defines the object-storage interface the document
// service depends on, plus a local-filesystem backend. The production
// cloud backend is a vendor SDK wired in at deployment; everything in
// this repository goes through the Storage interface.
package storage

import "context"

// Storage is the object-storage capability consumed by the core.
// Implementations are expected to pace write-side calls to respect the
// backend's rate limit.
type Storage interface {
	// CreateFolderIfMissing is idempotent and treats "already exists"
	// as success.
	CreateFolderIfMissing(ctx context.Context, path string) error
	// Upload writes bytes to path, creating ancestors, and returns the
	// final path.
	Upload(ctx context.Context, path string, data []byte) (string, error)
	// Copy duplicates a file; the source stays in place.
	Copy(ctx context.Context, from, to string) (string, error)
	// Move relocates a file with overwrite protection, creating the
	// destination's ancestors.
	Move(ctx context.Context, from, to string) (string, error)
	// Exists reports whether a file is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}
