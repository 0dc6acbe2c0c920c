package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Mode selects the container track transfer strategy.
type Mode string

const (
	// ModeTranscode re-encodes the video track, applying the derived
	// bitrate and resolution.
	ModeTranscode Mode = "transcode"
	// ModeRemux copies elementary streams sample-by-sample into a new
	// container, preserving timestamps and sync-point flags. The derived
	// parameters are not applied.
	ModeRemux Mode = "remux"
)

// IsValid returns true if the mode is one of the recognized strategies.
func (m Mode) IsValid() bool {
	return m == ModeTranscode || m == ModeRemux
}

// Audio settings shared by all transcodes.
const (
	audioCodec   = "aac"
	audioBitrate = "128k"
)

// Transferrer moves elementary streams from a source container into a new
// destination container using the ffmpeg CLI.
type Transferrer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewTransferrer creates a new Transferrer.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewTransferrer(ffmpegPath string) *Transferrer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transferrer{ffmpegPath: ffmpegPath}
}

// Transfer writes the source's tracks into a new container at dst. In
// ModeTranscode the video track is re-encoded to the target bitrate and
// resolution; in ModeRemux samples are copied unmodified. A partially
// written destination is deleted if the transfer fails partway through.
func (t *Transferrer) Transfer(ctx context.Context, src, dst string, target Target, mode Mode) error {
	var args []string
	switch mode {
	case ModeRemux:
		args = t.remuxArgs(src, dst)
	default:
		args = t.transcodeArgs(src, dst, target)
	}

	if err := t.runFFmpeg(ctx, args); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// transcodeArgs builds the re-encode invocation: libx264 at the derived
// bitrate, scaled to the derived even dimensions. Audio is re-encoded to AAC
// when the source carries a track, and dropped otherwise.
func (t *Transferrer) transcodeArgs(src, dst string, target Target) []string {
	bitrate := strconv.Itoa(target.Bitrate)
	args := []string{
		"-y",      // Overwrite output file
		"-i", src, // Input container
		"-c:v", "libx264", // Video codec
		"-b:v", bitrate, // Target bitrate
		"-maxrate", bitrate, // Cap peaks at the target
		"-bufsize", strconv.Itoa(target.Bitrate * 2), // Rate control window
	}
	if target.Scaled {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", target.Width, target.Height))
	}
	if target.Audio {
		args = append(args, "-c:a", audioCodec, "-b:a", audioBitrate)
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-movflags", "+faststart", // MP4 optimization
		dst,
	)
	return args
}

// remuxArgs builds the stream-copy invocation: every sample's bytes,
// timestamp and keyframe flag pass through unmodified.
func (t *Transferrer) remuxArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-c", "copy",
		"-movflags", "+faststart",
		dst,
	}
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (t *Transferrer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr
// output for diagnostics.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
