// Package bootstrap provides dependency initialization for mediapress.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/mediapress/mediapress/internal/compress"
	"github.com/mediapress/mediapress/internal/config"
	"github.com/mediapress/mediapress/internal/storage"
	"github.com/mediapress/mediapress/internal/video"
)

// NewEngine creates and wires all dependencies of the compression engine.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*compress.Engine, error) {
	store, err := initStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	prober := video.NewProber(cfg.FFprobePath)
	transferrer := video.NewTransferrer(cfg.FFmpegPath)

	return compress.New(store, prober, transferrer, logger), nil
}

// initStore creates the appropriate storage backend based on configuration.
func initStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.ScratchDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 store: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	logger.Info("local store configured",
		slog.String("scratch_dir", localStore.ScratchDir()),
	)
	return localStore, nil
}
