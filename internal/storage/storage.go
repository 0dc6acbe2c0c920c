// Package storage manages the scratch location where compressed artifacts
// are written. It defines the Store interface (port) and implementations for
// local disk and an S3-archiving variant layered on top of it.
package storage

import "context"

// Store defines the interface for compressed artifact storage. Outputs are
// newly created, uniquely named files owned by the caller once the outcome
// is delivered; the engine never registers them for later cleanup.
type Store interface {
	// AllocateOutput returns the path of a new, uniquely named output file
	// inside the scratch directory. The file itself is not created; ext is
	// the desired extension including the dot (".jpg", ".mp4").
	AllocateOutput(ext string) string

	// Discard removes a partially written artifact after a failed run.
	// Missing files are not an error.
	Discard(path string) error

	// Archive uploads a finished artifact to remote storage and returns its
	// URL. Returns ErrArchiveNotConfigured when no remote is configured.
	Archive(ctx context.Context, path string) (url string, err error)
}
