package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
)

// DefaultPace is the delay inserted before every write, copy and move.
const DefaultPace = 50 * time.Millisecond

// FS is a Storage backed by a local directory tree.
type FS struct {
	dir    string
	pace   time.Duration
	logger logging.Logger
}

var _ Storage = (*FS)(nil)

// NewFS creates a filesystem storage rooted at dir. A negative pace
// means DefaultPace; zero disables pacing (tests).
func NewFS(dir string, pace time.Duration, logger logging.Logger) (*FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if pace < 0 {
		pace = DefaultPace
	}
	return &FS{dir: dir, pace: pace, logger: logger}, nil
}

// pause applies the rate-limit delay, honoring context cancellation.
func (f *FS) pause(ctx context.Context) error {
	if f.pace <= 0 {
		return nil
	}
	timer := time.NewTimer(f.pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *FS) abs(path string) string {
	return filepath.Join(f.dir, filepath.FromSlash(path))
}

// CreateFolderIfMissing is idempotent and treats "already exists" as success.
func (f *FS) CreateFolderIfMissing(ctx context.Context, path string) error {
	if err := os.MkdirAll(f.abs(path), 0o750); err != nil {
		return &apperrors.StorageError{Op: "create_folder", Path: path, Err: err}
	}
	return nil
}

// Upload writes bytes to path, creating ancestors, and returns the final path.
func (f *FS) Upload(ctx context.Context, path string, data []byte) (string, error) {
	if err := f.pause(ctx); err != nil {
		return "", err
	}
	target := f.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", &apperrors.StorageError{Op: "upload", Path: path, Err: err}
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return "", &apperrors.StorageError{Op: "upload", Path: path, Err: err}
	}
	f.logger.WithField("path", path).Debug("Uploaded file")
	return path, nil
}

// Copy duplicates a file; the source stays in place.
func (f *FS) Copy(ctx context.Context, from, to string) (string, error) {
	if err := f.pause(ctx); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.abs(from))
	if err != nil {
		return "", &apperrors.StorageError{Op: "copy", Path: from, Err: err}
	}
	target := f.abs(to)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", &apperrors.StorageError{Op: "copy", Path: to, Err: err}
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return "", &apperrors.StorageError{Op: "copy", Path: to, Err: err}
	}
	f.logger.WithFields(
		logging.Field{Key: "from", Value: from},
		logging.Field{Key: "to", Value: to},
	).Debug("Copied file")
	return to, nil
}

// Move relocates a file. It refuses to overwrite an existing
// destination and creates the destination's ancestors.
func (f *FS) Move(ctx context.Context, from, to string) (string, error) {
	if err := f.pause(ctx); err != nil {
		return "", err
	}
	target := f.abs(to)
	if _, err := os.Stat(target); err == nil {
		return "", &apperrors.StorageError{Op: "move", Path: to, Err: os.ErrExist}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", &apperrors.StorageError{Op: "move", Path: to, Err: err}
	}
	if err := os.Rename(f.abs(from), target); err != nil {
		return "", &apperrors.StorageError{Op: "move", Path: from, Err: err}
	}
	f.logger.WithFields(
		logging.Field{Key: "from", Value: from},
		logging.Field{Key: "to", Value: to},
	).Debug("Moved file")
	return to, nil
}

// Exists reports whether a file is present at path.
func (f *FS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(f.abs(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &apperrors.StorageError{Op: "stat", Path: path, Err: err}
	}
	return true, nil
}
