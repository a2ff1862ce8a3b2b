package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestGrid_Empty(t *testing.T) {
	tests := []struct {
		name string
		grid *Grid
		want bool
	}{
		{"nil grid", nil, true},
		{"zero area", NewGrid(0, 10, 1), true},
		{"zero height", NewGrid(10, 0, 3), true},
		{"unsupported channels", &Grid{Width: 4, Height: 4, Channels: 4, Pix: make([]uint8, 64)}, true},
		{"valid gray", NewGrid(4, 4, 1), false},
		{"valid rgb", NewGrid(4, 4, 3), false},
	}
	for _, tc := range tests {
		if got := tc.grid.Empty(); got != tc.want {
			t.Errorf("%s: Empty() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewGridFromFloat_Quantization(t *testing.T) {
	g := NewGridFromFloat(5, 1, 1, []float64{-12.0, 0.4, 127.5, 254.6, 300.0})
	want := []uint8{0, 0, 128, 255, 255}
	for i, v := range want {
		if g.Pix[i] != v {
			t.Errorf("sample %d: got %d, want %d", i, g.Pix[i], v)
		}
	}
}

func TestLuminance_GrayPassThrough(t *testing.T) {
	g := NewGrid(2, 2, 1)
	copy(g.Pix, []uint8{0, 64, 128, 255})

	luma := g.Luminance()
	for i, v := range g.Pix {
		if luma.Pix[i] != float64(v) {
			t.Errorf("sample %d: got %g, want %d", i, luma.Pix[i], v)
		}
	}
}

func TestLuminance_RGBWeights(t *testing.T) {
	g := NewGrid(1, 1, 3)
	g.Pix[0], g.Pix[1], g.Pix[2] = 255, 0, 0

	luma := g.Luminance()
	if math.Abs(luma.Pix[0]-0.299*255) > 1e-9 {
		t.Errorf("pure red luma = %g, want %g", luma.Pix[0], 0.299*255)
	}
}

func TestFromImage_ToImage_RoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	g := FromImage(src)
	if g.Width != 3 || g.Height != 2 || g.Channels != 3 {
		t.Fatalf("unexpected grid shape %dx%dx%d", g.Width, g.Height, g.Channels)
	}
	if g.At(0, 0, 0) != 10 || g.At(0, 0, 1) != 20 || g.At(0, 0, 2) != 30 {
		t.Errorf("pixel (0,0) = (%d,%d,%d), want (10,20,30)", g.At(0, 0, 0), g.At(0, 0, 1), g.At(0, 0, 2))
	}

	back := g.ToImage().(*image.NRGBA)
	got := back.NRGBAAt(2, 1)
	if got.R != 200 || got.G != 100 || got.B != 50 {
		t.Errorf("round trip pixel (2,1) = (%d,%d,%d), want (200,100,50)", got.R, got.G, got.B)
	}
}

func TestPlane_Crop(t *testing.T) {
	p := &Plane{Width: 6, Height: 5, Pix: make([]float64, 30)}
	for i := range p.Pix {
		p.Pix[i] = float64(i)
	}

	c := p.Crop(2)
	if c.Width != 2 || c.Height != 1 {
		t.Fatalf("expected 2x1 crop, got %dx%d", c.Width, c.Height)
	}
	if c.Pix[0] != float64(2*6+2) || c.Pix[1] != float64(2*6+3) {
		t.Errorf("crop picked wrong samples: %v", c.Pix)
	}

	if got := p.Crop(3); len(got.Pix) != 0 {
		t.Errorf("over-large margin should produce zero-area plane, got %dx%d", got.Width, got.Height)
	}
}

func TestPlane_Stats(t *testing.T) {
	p := &Plane{Width: 4, Height: 1, Pix: []float64{2, 4, 6, 8}}

	if got := p.Mean(); got != 5 {
		t.Errorf("Mean = %g, want 5", got)
	}
	if got := p.Variance(); got != 5 {
		t.Errorf("Variance = %g, want 5", got)
	}
	if got := p.StdDev(); math.Abs(got-math.Sqrt(5)) > 1e-12 {
		t.Errorf("StdDev = %g, want sqrt(5)", got)
	}

	n := &Plane{Width: 2, Height: 1, Pix: []float64{-3, 3}}
	if got := n.MeanAbs(); got != 3 {
		t.Errorf("MeanAbs = %g, want 3", got)
	}

	empty := &Plane{}
	if empty.Mean() != 0 || empty.Variance() != 0 || empty.MeanAbs() != 0 {
		t.Error("empty plane stats should all be 0")
	}
}
