package enhance

import (
	"bytes"
	"math"
	"testing"

	"github.com/fpang/snapgrade/internal/imaging"
)

func grayRamp(w, h int) *imaging.Grid {
	g := imaging.NewGrid(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*w+x] = uint8(40 + x*150/(w-1))
		}
	}
	return g
}

func rgbRamp(w, h int) *imaging.Grid {
	g := imaging.NewGrid(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			g.Pix[i] = uint8(40 + x*150/(w-1))
			g.Pix[i+1] = uint8(80 + y*100/(h-1))
			g.Pix[i+2] = 60
		}
	}
	return g
}

func gridMean(g *imaging.Grid) float64 {
	sum := 0.0
	for _, v := range g.Pix {
		sum += float64(v)
	}
	return sum / float64(len(g.Pix))
}

func gridStdDev(g *imaging.Grid) float64 {
	mean := gridMean(g)
	sum := 0.0
	for _, v := range g.Pix {
		d := float64(v) - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(g.Pix)))
}

func TestApply_ZeroParamsIsIdentity(t *testing.T) {
	g := rgbRamp(16, 12)
	out := Apply(g, Params{})

	if !bytes.Equal(out.Pix, g.Pix) {
		t.Error("zero params must return a bit-identical grid")
	}
	if &out.Pix[0] == &g.Pix[0] {
		t.Error("output must be a copy, not an alias of the input")
	}
}

func TestApply_SkipThreshold(t *testing.T) {
	g := rgbRamp(16, 12)
	out := Apply(g, Params{Sharpness: 0.01, Contrast: 0.009, Brightness: 0.005})

	if !bytes.Equal(out.Pix, g.Pix) {
		t.Error("params at or below the skip threshold must change nothing")
	}
}

func TestApply_Brightness(t *testing.T) {
	g := grayRamp(20, 20)
	out := Apply(g, Params{Brightness: 0.2})

	if gridMean(out) <= gridMean(g) {
		t.Errorf("brightness stage should raise mean: %g -> %g", gridMean(g), gridMean(out))
	}
	// Gain of 1 + 0.2*0.5 = 1.1 on a known sample.
	want := math.Round(float64(g.Pix[0]) * 1.1)
	if float64(out.Pix[0]) != want {
		t.Errorf("sample 0 = %d, want %g", out.Pix[0], want)
	}
}

func TestApply_ContrastStretch(t *testing.T) {
	g := grayRamp(20, 20)
	out := Apply(g, Params{Contrast: 0.5})

	if gridStdDev(out) <= gridStdDev(g) {
		t.Errorf("contrast stage should raise stddev: %g -> %g", gridStdDev(g), gridStdDev(out))
	}
}

func TestApply_SharpenRaisesEdgeContrast(t *testing.T) {
	// Soft vertical edge.
	g := imaging.NewGrid(20, 20, 1)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			switch {
			case x < 8:
				g.Pix[y*20+x] = 80
			case x < 12:
				g.Pix[y*20+x] = uint8(80 + (x-7)*20)
			default:
				g.Pix[y*20+x] = 180
			}
		}
	}

	out := Apply(g, Params{Sharpness: 0.8})
	// Unsharp masking overshoots on both sides of the edge.
	if gridStdDev(out) <= gridStdDev(g) {
		t.Errorf("sharpen stage should raise stddev: %g -> %g", gridStdDev(g), gridStdDev(out))
	}
}

func TestApply_DenoiseSmoothsSpeckle(t *testing.T) {
	g := imaging.NewGrid(20, 20, 1)
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 110
		} else {
			g.Pix[i] = 146
		}
	}

	out := Apply(g, Params{Denoise: 0.7})
	if gridStdDev(out) >= gridStdDev(g) {
		t.Errorf("denoise stage should lower stddev: %g -> %g", gridStdDev(g), gridStdDev(out))
	}
}

func TestApply_ColorNoOpOnGrayscale(t *testing.T) {
	g := grayRamp(16, 16)
	out := Apply(g, Params{Color: 0.5})

	if !bytes.Equal(out.Pix, g.Pix) {
		t.Error("color stage must be a no-op on single-channel grids")
	}
}

func TestApply_ColorBoostsSaturation(t *testing.T) {
	g := rgbRamp(16, 16)
	out := Apply(g, Params{Color: 0.5})

	// Mean per-pixel channel spread is a saturation proxy.
	spread := func(g *imaging.Grid) float64 {
		total := 0.0
		n := g.Width * g.Height
		for i := 0; i < n; i++ {
			r := float64(g.Pix[i*3])
			gr := float64(g.Pix[i*3+1])
			b := float64(g.Pix[i*3+2])
			max := math.Max(r, math.Max(gr, b))
			min := math.Min(r, math.Min(gr, b))
			total += max - min
		}
		return total / float64(n)
	}

	if spread(out) <= spread(g) {
		t.Errorf("color stage should widen channel spread: %g -> %g", spread(g), spread(out))
	}
}

func TestApply_EmptyGrid(t *testing.T) {
	g := imaging.NewGrid(0, 0, 1)
	out := Apply(g, Params{Brightness: 0.2})
	if out.Width != 0 || out.Height != 0 || len(out.Pix) != 0 {
		t.Errorf("empty grid should pass through, got %dx%d", out.Width, out.Height)
	}
}

func TestHSV_RoundTrip(t *testing.T) {
	colors := [][3]float64{
		{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0},
		{0, 0, 255}, {128, 64, 32}, {17, 230, 94},
	}
	for _, c := range colors {
		h, s, v := rgbToHSV(c[0], c[1], c[2])
		r, g, b := hsvToRGB(h, s, v)
		if math.Abs(r-c[0]) > 1e-9 || math.Abs(g-c[1]) > 1e-9 || math.Abs(b-c[2]) > 1e-9 {
			t.Errorf("round trip of %v gave (%g, %g, %g)", c, r, g, b)
		}
	}
}
