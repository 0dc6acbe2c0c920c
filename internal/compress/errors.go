package compress

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"

	"github.com/mediapress/mediapress/internal/picture"
	"github.com/mediapress/mediapress/internal/video"
)

// ErrorKind is the stable error code surfaced to callers.
type ErrorKind string

// Recognized error codes.
const (
	// ErrorInvalidArgument means caller-supplied configuration violates a
	// documented constraint. Detected before the source file is touched.
	ErrorInvalidArgument ErrorKind = "INVALID_ARGUMENT"
	// ErrorFileNotFound means the source path does not resolve to an
	// existing, readable file.
	ErrorFileNotFound ErrorKind = "FILE_NOT_FOUND"
	// ErrorCompression means an underlying codec or transform failed.
	ErrorCompression ErrorKind = "COMPRESSION_ERROR"
	// ErrorNullResult means a downstream step produced no output despite
	// not raising a fault.
	ErrorNullResult ErrorKind = "NULL_RESULT"
	// ErrorTimeout is reserved for caller-side timeout wrappers; the engine
	// itself enforces no timeout.
	ErrorTimeout ErrorKind = "TIMEOUT"
	// ErrorUnknown covers any fault not classified above. Always surfaced,
	// never swallowed.
	ErrorUnknown ErrorKind = "UNKNOWN_ERROR"
)

// Error is the typed failure carried by a Failed outcome.
type Error struct {
	Code    ErrorKind
	Message string
	// Details carries best-effort diagnostic payload, e.g. ffmpeg stderr.
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorKind, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// classify maps a fault raised by any pipeline component to the nearest
// ErrorKind. This is the single place raw errors become caller-visible
// codes; nothing unmapped ever escapes the orchestrator.
func classify(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &Error{
			Code:    ErrorInvalidArgument,
			Message: verrs.Error(),
		}
	}

	var ffErr *video.FFmpegError
	if errors.As(err, &ffErr) {
		return &Error{
			Code:    ErrorCompression,
			Message: "track transfer failed",
			Details: ffErr.Stderr,
		}
	}

	// Component sentinels take precedence over the raw OS error they wrap: an
	// encode failure may carry fs.ErrNotExist for the output path, which must
	// not be mistaken for a missing source file.
	switch {
	case errors.Is(err, picture.ErrDecode),
		errors.Is(err, picture.ErrEmptyImage),
		errors.Is(err, picture.ErrEncode),
		errors.Is(err, video.ErrNoVideoStream),
		errors.Is(err, video.ErrProbeExecution):
		return newError(ErrorCompression, "%v", err)
	}

	if errors.Is(err, fs.ErrNotExist) {
		return newError(ErrorFileNotFound, "source file does not exist: %v", err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return newError(ErrorFileNotFound, "source file is not readable: %v", err)
	}

	return newError(ErrorUnknown, "%v", err)
}
