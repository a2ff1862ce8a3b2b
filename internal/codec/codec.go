// Package codec converts between encoded image bytes and pixel grids.
// It is the boundary between the service plumbing (S3 objects, HTTP
// uploads) and the assessment core, which only ever sees decoded grids.
//
// Supported input formats: JPEG, PNG, WebP. Outputs are encoded as PNG
// (lossless, so enhanced pixels survive the round trip) or JPEG.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder for image.Decode

	"github.com/fpang/snapgrade/internal/imaging"
)

// MaxDimension is the largest width or height accepted for assessment.
// Bigger inputs are downscaled first: convolution cost grows with pixel
// count and the quality heuristics are scale-stable well below this size.
const MaxDimension = 4096

// jpegQuality is used when re-encoding enhanced grids as JPEG.
const jpegQuality = 92

// Decode parses encoded bytes into a pixel grid, downscaling anything
// over MaxDimension with aspect ratio preserved.
func Decode(data []byte) (*imaging.Grid, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > MaxDimension || h > MaxDimension {
		img = downscale(img, MaxDimension)
		log.Debug().
			Str("format", format).
			Int("original_width", w).
			Int("original_height", h).
			Msg("Downscaled oversized image before assessment")
	}

	return imaging.FromImage(img), nil
}

// DecodeConfig reports the dimensions and format of encoded bytes without
// decoding the pixels. Used for upload validation.
func DecodeConfig(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// EncodePNG encodes a grid as PNG.
func EncodePNG(g *imaging.Grid) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.ToImage()); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes a grid as JPEG at the package quality setting.
func EncodeJPEG(g *imaging.Grid) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, g.ToImage(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes img so its larger dimension equals maxDim, using
// Catmull-Rom interpolation for quality.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if w >= h {
		newW = maxDim
		newH = h * maxDim / w
	} else {
		newH = maxDim
		newW = w * maxDim / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
