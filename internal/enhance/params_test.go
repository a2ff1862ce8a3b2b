package enhance

import (
	"math"
	"testing"

	"github.com/fpang/snapgrade/internal/quality"
)

func TestGenerateParams_SharpnessDeficit(t *testing.T) {
	diff := quality.Metrics{Sharpness: -10}
	p := GenerateParams(diff, 0.5)

	if math.Abs(p.Sharpness-0.05) > 1e-12 {
		t.Errorf("sharpness = %g, want 0.05", p.Sharpness)
	}
	if p.Contrast != 0 || p.Denoise != 0 || p.Color != 0 || p.Brightness != 0 {
		t.Errorf("unmatched fields must stay zero, got %+v", p)
	}
}

func TestGenerateParams_Thresholds(t *testing.T) {
	// Deficits at or above -5 (and overall above -10) trigger nothing.
	p := GenerateParams(quality.Metrics{Sharpness: -5, Contrast: -4.9, Noise: 0, Natural: -1, OverallScore: -10}, 1.0)
	if !p.Zero() {
		t.Errorf("sub-threshold deficits produced params %+v", p)
	}

	p = GenerateParams(quality.Metrics{Sharpness: -5.1, Contrast: -6, Noise: -20, Natural: -30, OverallScore: -10.5}, 1.0)
	if p.Sharpness == 0 || p.Contrast == 0 || p.Denoise == 0 || p.Color == 0 || p.Brightness == 0 {
		t.Errorf("above-threshold deficits left fields zero: %+v", p)
	}
}

func TestGenerateParams_Caps(t *testing.T) {
	// Impossible -1000 deficits must clamp to the per-field caps.
	diff := quality.Metrics{Sharpness: -1000, Contrast: -1000, Noise: -1000, Natural: -1000, OverallScore: -1000}
	p := GenerateParams(diff, 1.0)

	if p.Sharpness != 0.8 {
		t.Errorf("sharpness cap = %g, want 0.8", p.Sharpness)
	}
	if p.Contrast != 0.6 {
		t.Errorf("contrast cap = %g, want 0.6", p.Contrast)
	}
	if p.Denoise != 0.7 {
		t.Errorf("denoise cap = %g, want 0.7", p.Denoise)
	}
	if p.Color != 0.5 {
		t.Errorf("color cap = %g, want 0.5", p.Color)
	}
	if p.Brightness != 0.2 {
		t.Errorf("brightness = %g, want 0.2*level", p.Brightness)
	}
}

func TestGenerateParams_LevelScaling(t *testing.T) {
	diff := quality.Metrics{Sharpness: -40}

	low := GenerateParams(diff, 0.25)
	high := GenerateParams(diff, 1.0)
	if math.Abs(low.Sharpness-0.1) > 1e-12 {
		t.Errorf("level 0.25 sharpness = %g, want 0.1", low.Sharpness)
	}
	if math.Abs(high.Sharpness-0.4) > 1e-12 {
		t.Errorf("level 1.0 sharpness = %g, want 0.4", high.Sharpness)
	}

	if p := GenerateParams(diff, 0); !p.Zero() {
		t.Errorf("level 0 must derive nothing, got %+v", p)
	}
}

func TestGenerateParams_PositiveDiffsIgnored(t *testing.T) {
	// The target being better on an axis never triggers correction.
	p := GenerateParams(quality.Metrics{Sharpness: 30, Contrast: 15, Noise: 8, Natural: 50, OverallScore: 40}, 1.0)
	if !p.Zero() {
		t.Errorf("positive diffs produced params %+v", p)
	}
}
