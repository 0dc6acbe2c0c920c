package compress

import (
	"github.com/mediapress/mediapress/internal/video"
)

// Kind discriminates the two request flavours.
type Kind string

const (
	// KindImage requests the decode/resize/encode chain.
	KindImage Kind = "image"
	// KindVideo requests the probe/derive/transfer chain.
	KindVideo Kind = "video"
)

// Defaults applied by the external call surface when the caller omits them.
const (
	// DefaultImageQuality is the JPEG quality used when none is given.
	DefaultImageQuality = 80
	// DefaultVideoPreset is the quality preset used when none is given.
	DefaultVideoPreset = video.PresetMedium
)

// ImageConfig holds the caller-settable parameters for image compression.
// Resizing only applies when both max dimensions are present.
type ImageConfig struct {
	// Quality is the JPEG quality, 0 (most compression) to 100 (highest
	// fidelity).
	Quality int `validate:"gte=0,lte=100"`
	// MaxWidth caps the output width. Optional; must be positive if set.
	MaxWidth *int `validate:"omitempty,gt=0"`
	// MaxHeight caps the output height. Optional; must be positive if set.
	MaxHeight *int `validate:"omitempty,gt=0"`
}

// bounded reports whether both dimension caps are present.
func (c ImageConfig) bounded() bool {
	return c.MaxWidth != nil && c.MaxHeight != nil
}

// VideoConfig holds the caller-settable parameters for video compression.
// No numeric fields are exposed; presets map internally to bitrate and
// resolution pairs.
type VideoConfig struct {
	// Preset is the quality tier: low, medium or high.
	Preset video.Preset `validate:"oneof=low medium high"`
	// Mode selects the transfer strategy. Empty defaults to transcode.
	Mode video.Mode `validate:"omitempty,oneof=transcode remux"`
}

// Request is one immutable compression request, owned exclusively by the
// engine for the duration of the call. Exactly one of Image/Video is set,
// matching Kind.
type Request struct {
	Kind       Kind   `validate:"required,oneof=image video"`
	SourcePath string `validate:"required"`
	Image      *ImageConfig
	Video      *VideoConfig
}

// NewImageRequest builds an image compression request.
func NewImageRequest(sourcePath string, cfg ImageConfig) Request {
	return Request{Kind: KindImage, SourcePath: sourcePath, Image: &cfg}
}

// NewVideoRequest builds a video compression request.
func NewVideoRequest(sourcePath string, cfg VideoConfig) Request {
	return Request{Kind: KindVideo, SourcePath: sourcePath, Video: &cfg}
}
