package picture

import (
	"math"

	"github.com/nfnt/resize"
)

// FitWithin downscales src so that it fits inside maxWidth x maxHeight,
// preserving aspect ratio. The image is never upscaled: if it already fits
// within both bounds, src is returned unchanged.
//
// A resample that fails mid-flight (the interpolator can panic on buffers it
// cannot allocate) degrades to the original, unscaled buffer instead of
// failing the whole request.
func FitWithin(src *Decoded, maxWidth, maxHeight int) *Decoded {
	dstW, dstH, needed := fitDimensions(src.Width, src.Height, maxWidth, maxHeight)
	if !needed {
		return src
	}

	out := resample(src, dstW, dstH)
	if out == nil {
		return src
	}
	return out
}

// fitDimensions computes the target size under the two caps. The scale
// factor is min(maxW/w, maxH/h, 1.0); a factor >= 1 means the image already
// fits and no resize is needed.
func fitDimensions(w, h, maxW, maxH int) (int, int, bool) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return w, h, false
	}

	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	if ratio >= 1.0 {
		return w, h, false
	}

	dstW := int(math.Max(1, math.Round(float64(w)*ratio)))
	dstH := int(math.Max(1, math.Round(float64(h)*ratio)))
	return dstW, dstH, true
}

// resample runs the Lanczos-3 interpolator, converting a panic into a nil
// result so the caller can fall back to the original buffer.
func resample(src *Decoded, dstW, dstH int) (out *Decoded) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()

	img := resize.Resize(uint(dstW), uint(dstH), src.Img, resize.Lanczos3)
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	return &Decoded{
		Img:    img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}
