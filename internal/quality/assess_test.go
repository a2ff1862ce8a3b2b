package quality

import (
	"math"
	"testing"

	"github.com/fpang/snapgrade/internal/imaging"
)

// constantGrid builds a single-value grayscale grid.
func constantGrid(w, h int, v uint8) *imaging.Grid {
	g := imaging.NewGrid(w, h, 1)
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// gradientGrid builds a grayscale grid ramping left to right.
func gradientGrid(w, h int) *imaging.Grid {
	g := imaging.NewGrid(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*w+x] = uint8(x * 255 / (w - 1))
		}
	}
	return g
}

// speckleGrid builds a grid with deterministic high-frequency noise around
// a mid-gray base.
func speckleGrid(w, h int) *imaging.Grid {
	g := imaging.NewGrid(w, h, 1)
	seed := uint32(12345)
	for i := range g.Pix {
		seed = seed*1664525 + 1013904223
		g.Pix[i] = uint8(128 + int(seed%120) - 60)
	}
	return g
}

func inRange(v float64) bool {
	return v >= 0 && v <= 100
}

func checkBounds(t *testing.T, name string, m Metrics) {
	t.Helper()
	if !inRange(m.Sharpness) || !inRange(m.Contrast) || !inRange(m.Noise) || !inRange(m.Natural) || !inRange(m.OverallScore) {
		t.Errorf("%s: metrics out of [0,100]: %+v", name, m)
	}
}

func TestAssess_EmptyGrid(t *testing.T) {
	tests := []struct {
		name string
		grid *imaging.Grid
	}{
		{"nil", nil},
		{"zero width", imaging.NewGrid(0, 5, 1)},
		{"zero height", imaging.NewGrid(5, 0, 3)},
		{"bad channels", &imaging.Grid{Width: 4, Height: 4, Channels: 2, Pix: make([]uint8, 32)}},
	}
	for _, tc := range tests {
		m := Assess(tc.grid)
		if m != (Metrics{}) {
			t.Errorf("%s: expected all-zero metrics, got %+v", tc.name, m)
		}
	}
}

func TestAssess_ConstantImage(t *testing.T) {
	m := Assess(constantGrid(32, 32, 128))

	if m.Contrast != 0 {
		t.Errorf("constant image contrast = %g, want 0", m.Contrast)
	}
	if m.Sharpness != 0 {
		t.Errorf("constant image sharpness = %g, want 0", m.Sharpness)
	}
	// A perfectly flat image smooths to itself, so the noise score is maximal.
	if m.Noise != 100 {
		t.Errorf("constant image noise = %g, want 100", m.Noise)
	}
	checkBounds(t, "constant", m)
}

func TestAssess_TinyImageNoiseFallback(t *testing.T) {
	// 6x6 is too small for the 2px outer / 4px inner noise margins.
	m := Assess(constantGrid(6, 6, 90))
	if m.Noise != 50 {
		t.Errorf("tiny image noise = %g, want fallback 50", m.Noise)
	}
	checkBounds(t, "tiny", m)
}

func TestAssess_GradientHasContrast(t *testing.T) {
	m := Assess(gradientGrid(64, 64))
	if m.Contrast <= 0 {
		t.Errorf("gradient contrast = %g, want > 0", m.Contrast)
	}
	checkBounds(t, "gradient", m)
}

func TestAssess_SpeckleScoresNoisier(t *testing.T) {
	smooth := Assess(gradientGrid(64, 64))
	speckled := Assess(speckleGrid(64, 64))

	// Higher noise score means cleaner. The speckled image must score
	// strictly below the smooth gradient.
	if speckled.Noise >= smooth.Noise {
		t.Errorf("speckle noise score %g not below smooth %g", speckled.Noise, smooth.Noise)
	}
	// Speckle is also sharper in the Laplacian-variance sense.
	if speckled.Sharpness <= smooth.Sharpness {
		t.Errorf("speckle sharpness %g not above smooth %g", speckled.Sharpness, smooth.Sharpness)
	}
	checkBounds(t, "speckle", speckled)
}

func TestAssess_RGBAndGrayAgreeOnGrayContent(t *testing.T) {
	// An RGB grid with r=g=b has the same luminance as the gray grid.
	gray := gradientGrid(32, 32)
	rgb := imaging.NewGrid(32, 32, 3)
	for i, v := range gray.Pix {
		rgb.Pix[i*3] = v
		rgb.Pix[i*3+1] = v
		rgb.Pix[i*3+2] = v
	}

	mGray := Assess(gray)
	mRGB := Assess(rgb)
	if math.Abs(mGray.OverallScore-mRGB.OverallScore) > 1e-6 {
		t.Errorf("gray %g vs rgb-of-gray %g overall scores diverge", mGray.OverallScore, mRGB.OverallScore)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	g := speckleGrid(48, 48)
	if Assess(g) != Assess(g) {
		t.Error("repeated assessment of the same grid must be identical")
	}
}

func TestAssess_OverallIsWeightedBlend(t *testing.T) {
	m := Assess(gradientGrid(64, 64))
	want := clamp(0.3*m.Sharpness + 0.2*m.Contrast + 0.2*m.Noise + 0.3*m.Natural)
	if math.Abs(m.OverallScore-want) > 1e-9 {
		t.Errorf("overall = %g, want blend %g", m.OverallScore, want)
	}
}
