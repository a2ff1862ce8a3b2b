package codec

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/fpang/snapgrade/internal/imaging"
)

func testGrid(w, h int) *imaging.Grid {
	g := imaging.NewGrid(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			g.Pix[i] = uint8((x * 7) % 256)
			g.Pix[i+1] = uint8((y * 11) % 256)
			g.Pix[i+2] = uint8((x + y) % 256)
		}
	}
	return g
}

func TestEncodePNGDecodeRoundTrip(t *testing.T) {
	src := testGrid(20, 14)

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.Width != src.Width || back.Height != src.Height || back.Channels != 3 {
		t.Fatalf("round trip dimensions = %dx%dx%d, want %dx%dx%d",
			back.Width, back.Height, back.Channels, src.Width, src.Height, src.Channels)
	}
	if !bytes.Equal(back.Pix, src.Pix) {
		t.Error("PNG round trip changed pixel data")
	}
}

func TestDecodeJPEG(t *testing.T) {
	src := testGrid(16, 16)
	data, err := EncodeJPEG(src)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.Width != 16 || back.Height != 16 {
		t.Errorf("decoded dimensions = %dx%d, want 16x16", back.Width, back.Height)
	}
}

func TestDecodeGrayscalePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	g, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if g.Channels != 1 {
		t.Errorf("grayscale PNG decoded to %d channels, want 1", g.Channels)
	}
	if g.Pix[3] != img.Pix[3] {
		t.Errorf("pixel 3 = %d, want %d", g.Pix[3], img.Pix[3])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image at all")); err == nil {
		t.Error("Decode accepted garbage bytes")
	}
	if _, _, _, err := DecodeConfig([]byte{0x00, 0x01}); err == nil {
		t.Error("DecodeConfig accepted garbage bytes")
	}
}

func TestDecodeConfig(t *testing.T) {
	data, err := EncodePNG(testGrid(33, 21))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	w, h, format, err := DecodeConfig(data)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if w != 33 || h != 21 {
		t.Errorf("dimensions = %dx%d, want 33x21", w, h)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
}

func TestDownscalePreservesAspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 120, 130, 140, 255
	}

	out := downscale(img, 200)
	b := out.Bounds()
	if b.Dx() != 200 || b.Dy() != 50 {
		t.Errorf("downscaled to %dx%d, want 200x50", b.Dx(), b.Dy())
	}
}

func TestDownscaleTinyDimensionClampsToOne(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1))
	out := downscale(img, 10)
	if b := out.Bounds(); b.Dx() != 10 || b.Dy() != 1 {
		t.Errorf("downscaled to %dx%d, want 10x1", b.Dx(), b.Dy())
	}
}
