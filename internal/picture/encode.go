package picture

import (
	"fmt"
	"image/jpeg"
	"os"
)

// EncodeJPEG re-encodes the pixel buffer as a JPEG at the given quality
// (0 = most compression, 100 = highest fidelity) and writes it to path.
// The destination file is created fresh; a partially written file is removed
// if encoding or the final close fails, so no corrupt artifact is left
// behind.
func EncodeJPEG(src *Decoded, path string, quality int) error {
	if src == nil || src.Width <= 0 || src.Height <= 0 {
		return ErrEmptyImage
	}

	f, err := os.Create(path) // #nosec G304 - path is allocated by the storage manager
	if err != nil {
		return fmt.Errorf("create %q: %w: %w", path, ErrEncode, err)
	}

	if err := jpeg.Encode(f, src.Img, &jpeg.Options{Quality: quality}); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode %q: %w: %w", path, ErrEncode, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %q: %w: %w", path, ErrEncode, err)
	}

	return nil
}
