package variant

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// imagingResizer is the pure-Go fill implementation. Re-encoding through
// the imaging package drops any EXIF or other metadata from the source.
type imagingResizer struct{}

func (imagingResizer) Fill(ctx context.Context, src []byte, width, height int, ext string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if width <= 0 || height <= 0 {
		return nil, errors.New("fill requires positive target dimensions")
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("unsupported output extension %q: %w", ext, err)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	filled := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, filled, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode %s output: %w", format, err)
	}
	return buf.Bytes(), nil
}
