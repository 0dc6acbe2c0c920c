// Package compress implements the compression orchestration engine: request
// validation, the image decode/resize/encode chain, the video
// probe/derive/transfer chain, and the phase machine that turns component
// faults into typed errors.
package compress

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/mediapress/mediapress/internal/picture"
	"github.com/mediapress/mediapress/internal/storage"
	"github.com/mediapress/mediapress/internal/video"
)

// Prober inspects a source container. Implemented by video.Prober.
type Prober interface {
	Probe(ctx context.Context, path string) (*video.SourceInfo, error)
}

// Transferrer moves tracks into a destination container. Implemented by
// video.Transferrer.
type Transferrer interface {
	Transfer(ctx context.Context, src, dst string, target video.Target, mode video.Mode) error
}

// Engine is a stateless compression service. Each request executes on its
// own background goroutine and delivers exactly one Outcome on the returned
// channel; nothing is shared between in-flight requests, so an Engine value
// may be used concurrently. There is no cancellation primitive: a request
// runs to Complete or Failed. Callers needing bounded memory should
// serialize their own requests.
type Engine struct {
	store       storage.Store
	prober      Prober
	transferrer Transferrer
	validate    *validator.Validate
	logger      *slog.Logger
}

// New creates a compression engine. A nil logger falls back to slog.Default.
func New(store storage.Store, prober Prober, transferrer Transferrer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       store,
		prober:      prober,
		transferrer: transferrer,
		validate:    validator.New(),
		logger:      logger,
	}
}

// CompressImage compresses the image at path under cfg. The call returns
// immediately; the outcome arrives on the channel.
func (e *Engine) CompressImage(path string, cfg ImageConfig) <-chan Outcome {
	return e.Compress(NewImageRequest(path, cfg))
}

// CompressVideo compresses the video at path under cfg. The call returns
// immediately; the outcome arrives on the channel.
func (e *Engine) CompressVideo(path string, cfg VideoConfig) <-chan Outcome {
	return e.Compress(NewVideoRequest(path, cfg))
}

// Compress starts one compression request on a background worker. The
// returned channel is buffered and receives exactly one Outcome.
func (e *Engine) Compress(req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		ch <- e.execute(req)
	}()
	return ch
}

// execute runs the request to a terminal phase. Any fault raised by a
// component is mapped to the nearest ErrorKind here; a raw, unmapped fault
// never reaches the caller.
func (e *Engine) execute(req Request) (out Outcome) {
	r := newRun(req.Kind, e.logger)
	defer func() {
		if rec := recover(); rec != nil {
			out = r.fail(newError(ErrorUnknown, "panic during compression: %v", rec))
		}
	}()

	// Malformed requests must never touch disk, so validation runs before
	// the source file's existence is even probed.
	if err := e.validateRequest(req); err != nil {
		return r.fail(classify(err))
	}

	if err := r.advance(PhaseProbing); err != nil {
		return r.fail(classify(err))
	}
	st, err := os.Stat(req.SourcePath)
	if err != nil || st.IsDir() {
		return r.fail(newError(ErrorFileNotFound, "source file not found: %s", req.SourcePath))
	}

	switch req.Kind {
	case KindImage:
		return e.executeImage(r, req)
	default:
		return e.executeVideo(r, req)
	}
}

// validateRequest enforces the documented constraints on the request itself:
// non-empty source path, image quality within [0,100], positive dimension
// caps, recognized preset and mode, and a config matching the request kind.
func (e *Engine) validateRequest(req Request) error {
	if err := e.validate.Struct(req); err != nil {
		return err
	}
	switch req.Kind {
	case KindImage:
		if req.Image == nil {
			return newError(ErrorInvalidArgument, "image request carries no image configuration")
		}
	case KindVideo:
		if req.Video == nil {
			return newError(ErrorInvalidArgument, "video request carries no video configuration")
		}
	}
	return nil
}

// executeImage runs the decode -> resize -> encode chain.
func (e *Engine) executeImage(r *run, req Request) Outcome {
	cfg := *req.Image

	decoded, err := picture.Decode(req.SourcePath)
	if err != nil {
		return r.fail(classify(err))
	}

	if err := r.advance(PhaseTransforming); err != nil {
		return r.fail(classify(err))
	}
	// Resize only applies when both bounds are given.
	if cfg.bounded() {
		before := *decoded
		decoded = picture.FitWithin(decoded, *cfg.MaxWidth, *cfg.MaxHeight)
		if decoded.Width != before.Width || decoded.Height != before.Height {
			e.logger.Debug("image resized",
				slog.String("request_id", r.id),
				slog.Int("from_width", before.Width),
				slog.Int("from_height", before.Height),
				slog.Int("to_width", decoded.Width),
				slog.Int("to_height", decoded.Height),
			)
		}
	}

	if err := r.advance(PhaseEncoding); err != nil {
		return r.fail(classify(err))
	}
	outPath := e.store.AllocateOutput(".jpg")
	if err := picture.EncodeJPEG(decoded, outPath, cfg.Quality); err != nil {
		return r.fail(classify(err))
	}

	return e.finish(r, outPath)
}

// executeVideo runs the probe -> derive -> transfer chain.
func (e *Engine) executeVideo(r *run, req Request) Outcome {
	cfg := *req.Video
	ctx := context.Background() // no cancellation by contract

	info, err := e.prober.Probe(ctx, req.SourcePath)
	if err != nil {
		return r.fail(classify(err))
	}

	if err := r.advance(PhaseTransforming); err != nil {
		return r.fail(classify(err))
	}
	target := video.DeriveTarget(*info, cfg.Preset)

	mode := cfg.Mode
	if mode == "" {
		mode = video.ModeTranscode
	}
	e.logger.Debug("derived transfer parameters",
		slog.String("request_id", r.id),
		slog.String("preset", string(cfg.Preset)),
		slog.String("mode", string(mode)),
		slog.Int("bitrate", target.Bitrate),
		slog.Int("width", target.Width),
		slog.Int("height", target.Height),
	)

	if err := r.advance(PhaseTransferring); err != nil {
		return r.fail(classify(err))
	}
	outPath := e.store.AllocateOutput(".mp4")
	if err := e.transferrer.Transfer(ctx, req.SourcePath, outPath, target, mode); err != nil {
		return r.fail(classify(err))
	}

	return e.finish(r, outPath)
}

// finish verifies the artifact actually exists, optionally archives it, and
// reaches the Complete phase. A step that reported success without producing
// output is a NULL_RESULT failure, never silently ignored.
func (e *Engine) finish(r *run, outPath string) Outcome {
	st, err := os.Stat(outPath)
	if err != nil || st.Size() == 0 {
		_ = e.store.Discard(outPath)
		return r.fail(newError(ErrorNullResult, "no output produced at %s", outPath))
	}

	abs, err := filepath.Abs(outPath)
	if err != nil {
		abs = outPath
	}

	archiveURL := ""
	url, err := e.store.Archive(context.Background(), outPath)
	switch {
	case err == nil:
		archiveURL = url
	case errors.Is(err, storage.ErrArchiveNotConfigured):
		// local-only operation
	default:
		// Archival is additive: the local artifact is the contract.
		e.logger.Warn("artifact archive failed",
			slog.String("request_id", r.id),
			slog.String("error", err.Error()),
		)
	}

	return r.complete(abs, archiveURL)
}
