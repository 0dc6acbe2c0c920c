// Package picture provides the image half of the compression pipeline:
// EXIF-aware decoding, aspect-preserving downscaling, and quality-driven
// JPEG re-encoding.
package picture

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imageorient"
)

// Static errors for image operations.
var (
	// ErrDecode is returned when a file cannot be parsed as a supported image.
	ErrDecode = errors.New("picture: undecodable image data")
	// ErrEmptyImage is returned when a pixel buffer has no visible area.
	ErrEmptyImage = errors.New("picture: empty pixel buffer")
	// ErrEncode is returned when the compressed artifact cannot be written.
	ErrEncode = errors.New("picture: encode failed")
)

// Decoded is an in-memory pixel buffer whose EXIF orientation has already
// been baked into the pixel layout. A naive viewer renders it correctly
// without consulting metadata.
type Decoded struct {
	Img    image.Image
	Width  int
	Height int
}

// Decode loads the image at path and normalizes its EXIF orientation
// (rotation and mirroring) into the pixel data. Orientation correction is
// best-effort: an absent or unreadable orientation tag is treated as normal
// and does not fail the decode.
func Decode(path string) (*Decoded, error) {
	f, err := os.Open(path) // #nosec G304 - path was validated by the orchestrator
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// imageorient reads the EXIF orientation tag (values 1-8: rotations,
	// flips, transpose, transverse) and applies the matching affine
	// transform during decode. Missing or corrupt EXIF degrades to a
	// plain decode.
	img, _, err := imageorient.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w: %w", path, ErrDecode, err)
	}

	bounds := img.Bounds()
	return &Decoded{
		Img:    img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
