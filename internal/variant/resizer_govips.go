//go:build govips && cgo

package variant

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidbyttow/govips/v2/vips"
)

type govipsResizer struct{}

func (govipsResizer) Fill(ctx context.Context, src []byte, width, height int, ext string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("fill requires positive target dimensions")
	}

	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if err := img.Thumbnail(width, height, vips.InterestingCentre); err != nil {
		return nil, fmt.Errorf("fill to %dx%d: %w", width, height, err)
	}

	return exportByExtension(img, ext)
}

func exportByExtension(img *vips.ImageRef, ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = jpegQuality
		params.StripMetadata = true
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case "png":
		params := vips.NewPngExportParams()
		params.StripMetadata = true
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case "webp":
		params := vips.NewWebpExportParams()
		params.StripMetadata = true
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output extension: %s", ext)
	}
}
