// Package video provides the video half of the compression pipeline:
// container probing via ffprobe, quality-preset parameter derivation, and
// track transfer (remux or transcode) via ffmpeg.
package video

// Preset is a named quality tier mapping to a bitrate/resolution pair.
type Preset string

// Recognized quality presets.
const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// IsValid returns true if the preset is one of the recognized tiers.
func (p Preset) IsValid() bool {
	return p == PresetLow || p == PresetMedium || p == PresetHigh
}

// presetTargets maps each preset to its target bitrate (bps) and target
// vertical resolution.
var presetTargets = map[Preset]struct {
	bitrate int
	height  int
}{
	PresetLow:    {bitrate: 500_000, height: 480},
	PresetMedium: {bitrate: 1_000_000, height: 720},
	PresetHigh:   {bitrate: 2_000_000, height: 1080},
}

// Target holds the derived encoding parameters for one transfer.
type Target struct {
	// Bitrate is the target video bitrate in bits per second.
	Bitrate int
	// Width and Height are the final output dimensions, both even.
	Width  int
	Height int
	// Scaled reports whether the source is being downscaled.
	Scaled bool
	// Audio reports whether the source carries an audio track to transfer.
	Audio bool
}

// DeriveTarget maps a quality preset to concrete encoding parameters for the
// given source. If the source is taller than the preset's target height it is
// scaled down preserving aspect ratio; a source that already fits keeps its
// dimensions (video is never upscaled). Both final dimensions are rounded
// down to the nearest even integer, a hardware encoder constraint.
func DeriveTarget(info SourceInfo, preset Preset) Target {
	t := presetTargets[preset]

	w, h := info.DisplayDimensions()

	outW, outH := w, h
	scaled := false
	if h > t.height {
		outH = t.height
		outW = int(float64(outH) * float64(w) / float64(h))
		scaled = true
	}

	return Target{
		Bitrate: t.bitrate,
		Width:   evenFloor(outW),
		Height:  evenFloor(outH),
		Scaled:  scaled,
		Audio:   info.HasAudio,
	}
}

// evenFloor rounds n down to the nearest even integer, with a floor of 2 so
// a degenerate source can never produce a zero-sized dimension.
func evenFloor(n int) int {
	n -= n % 2
	if n < 2 {
		return 2
	}
	return n
}
