package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// Static errors for probing.
var (
	// ErrNoVideoStream is returned when the source container holds no video
	// track. Audio-only sources are rejected.
	ErrNoVideoStream = errors.New("video: source contains no video stream")
	// ErrProbeExecution is returned when the ffprobe command fails.
	ErrProbeExecution = errors.New("video: ffprobe execution failed")
)

// SourceInfo describes the first video stream of a source container,
// derived once per request.
type SourceInfo struct {
	// Width and Height are the stored dimensions of the video stream.
	Width  int
	Height int
	// Rotation is the display rotation in degrees (0, 90, 180 or 270).
	Rotation int
	// HasAudio reports whether the container also carries an audio stream.
	HasAudio bool
}

// DisplayDimensions returns the dimensions as rendered: a 90 or 270 degree
// rotation swaps width and height.
func (i SourceInfo) DisplayDimensions() (int, int) {
	if i.Rotation == 90 || i.Rotation == 270 {
		return i.Height, i.Width
	}
	return i.Width, i.Height
}

// Prober inspects media containers using the ffprobe CLI.
type Prober struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewProber creates a new Prober.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath}
}

// probeStream mirrors the subset of ffprobe's per-stream JSON we consume.
type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Tags      struct {
		Rotate string `json:"rotate"`
	} `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// Probe enumerates the elementary streams of the container at path and
// returns info about its first video stream. It fails with ErrNoVideoStream
// if every stream is non-video.
func (p *Prober) Probe(ctx context.Context, path string) (*SourceInfo, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w, stderr: %s", ErrProbeExecution, err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &SourceInfo{}
	found := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if found {
				continue // only the first video stream matters
			}
			found = true
			info.Width = s.Width
			info.Height = s.Height
			info.Rotation = streamRotation(s)
		case "audio":
			info.HasAudio = true
		}
	}

	if !found {
		return nil, ErrNoVideoStream
	}
	return info, nil
}

// streamRotation extracts the display rotation from either the legacy rotate
// tag or the display-matrix side data, normalized to [0, 360).
func streamRotation(s probeStream) int {
	if s.Tags.Rotate != "" {
		if deg, err := strconv.Atoi(s.Tags.Rotate); err == nil {
			return normalizeRotation(deg)
		}
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			return normalizeRotation(int(math.Round(sd.Rotation)))
		}
	}
	return 0
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
