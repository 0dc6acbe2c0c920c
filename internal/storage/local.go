package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrArchiveNotConfigured is returned when archive operations are attempted
// without remote storage configured.
var ErrArchiveNotConfigured = errors.New("archive storage is not configured")

// LocalStore implements the Store interface using a local scratch directory.
// It does not support archiving unless wrapped with S3Store.
type LocalStore struct {
	scratchDir string
}

// NewLocalStore creates a new LocalStore instance.
// If scratchDir is empty, a "mediapress" directory under os.TempDir() is
// used. The directory is created if it doesn't exist.
func NewLocalStore(scratchDir string) (*LocalStore, error) {
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "mediapress")
	}

	if err := os.MkdirAll(scratchDir, 0750); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	return &LocalStore{scratchDir: scratchDir}, nil
}

// ScratchDir returns the scratch directory path.
func (s *LocalStore) ScratchDir() string {
	return s.scratchDir
}

// AllocateOutput returns a globally unique output path of the form
// compressed_<uuid>.<ext> inside the scratch directory.
func (s *LocalStore) AllocateOutput(ext string) string {
	name := fmt.Sprintf("compressed_%s%s", uuid.NewString(), ext)
	return filepath.Join(s.scratchDir, name)
}

// Discard removes a partially written artifact. A file that is already gone
// is not an error.
func (s *LocalStore) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %s: %w", path, err)
	}
	return nil
}

// Archive is not supported by LocalStore and returns ErrArchiveNotConfigured.
func (s *LocalStore) Archive(_ context.Context, _ string) (string, error) {
	return "", ErrArchiveNotConfigured
}
