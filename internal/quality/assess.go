// Package quality computes no-reference perceptual quality metrics from
// pixel grids: sharpness, contrast, noise, naturalness, and a weighted
// overall score, each on a 0–100 scale. The formulas are fixed closed-form
// heuristics over local image statistics, not trained models, so identical
// inputs always produce identical scores.
package quality

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/imaging"
)

// Metrics holds the five per-image quality scores. Each field is clamped to
// [0, 100]. The same struct doubles as a per-key difference vector, where
// fields may be negative.
type Metrics struct {
	Sharpness    float64 `json:"sharpness"`
	Contrast     float64 `json:"contrast"`
	Noise        float64 `json:"noise"`
	Natural      float64 `json:"natural"`
	OverallScore float64 `json:"overall_score"`
}

// Assessment tuning constants. These values define the observable scores;
// changing any of them silently shifts every metric, so they are fixed
// rather than configurable.
const (
	// naturalKernelSize and naturalSigma parameterize the local mean and
	// variance windows for the MSCN naturalness features.
	naturalKernelSize = 7
	naturalSigma      = 7.0 / 6.0

	// noiseKernelSize and noiseSigma parameterize the smoothing kernel for
	// the noise estimate.
	noiseKernelSize = 5
	noiseSigma      = 1.0

	// noiseOuterMargin and noiseInnerMargin trim image borders so the
	// smoothed and original patches cover the same interior region.
	noiseOuterMargin = 2
	noiseInnerMargin = 4

	// degenerateFallback is returned for metrics whose interior region is
	// too small to compute. A neutral midpoint rather than an error.
	degenerateFallback = 50.0

	mscnEpsilon = 1e-8
)

// Overall score blend weights.
const (
	weightSharpness = 0.3
	weightContrast  = 0.2
	weightNoise     = 0.2
	weightNatural   = 0.3
)

// Assess computes the quality metrics for a grid. A nil, zero-area, or
// unsupported grid yields all-zero metrics with no error — downstream
// stages treat a zero-metrics image as valid input.
func Assess(g *imaging.Grid) Metrics {
	if g.Empty() {
		log.Debug().Msg("Assessing empty grid: returning zero metrics")
		return Metrics{}
	}

	luma := g.Luminance()

	// Each component is clamped before the blend: the naturalness formula
	// can exceed 100 for very smooth content, and the overall score must
	// blend the reported values, not the raw ones.
	sharpness := clamp(100 * math.Tanh(imaging.Laplacian(luma).Variance()/100))
	contrast := clamp(100 * luma.StdDev() / 255)
	noise := clamp(assessNoise(luma))
	natural := clamp(assessNatural(luma))

	overall := sharpness*weightSharpness + contrast*weightContrast + noise*weightNoise + natural*weightNatural

	m := Metrics{
		Sharpness:    sharpness,
		Contrast:     contrast,
		Noise:        noise,
		Natural:      natural,
		OverallScore: clamp(overall),
	}

	log.Debug().
		Int("width", g.Width).
		Int("height", g.Height).
		Float64("overall", m.OverallScore).
		Msg("Quality assessment complete")

	return m
}

// assessNoise estimates noise as the inverse of local smoothness: the
// interior of the image is smoothed with a small Gaussian and compared
// against the matching original patch. Large residuals mean noise, so the
// score drops. Images too small for the border margins fall back to the
// neutral value.
func assessNoise(luma *imaging.Plane) float64 {
	kernel := imaging.GaussianKernel2D(noiseKernelSize, noiseSigma)

	// Outer crop, then valid-mode convolution, shrinks the smoothed patch
	// to the same footprint as the inner crop of the original.
	smoothed := imaging.ConvolveValid(luma.Crop(noiseOuterMargin).Scale(1.0/255), kernel)
	original := luma.Crop(noiseInnerMargin).Scale(1.0 / 255)
	if len(smoothed.Pix) == 0 || len(original.Pix) == 0 {
		return degenerateFallback
	}

	residual := 0.0
	for i := range smoothed.Pix {
		residual += math.Abs(smoothed.Pix[i] - original.Pix[i])
	}
	residual /= float64(len(smoothed.Pix))

	return 100 * (1 - residual)
}

// assessNatural scores naturalness from mean-subtracted contrast-normalized
// (MSCN) coefficients: each interior sample is normalized by its local
// Gaussian-weighted mean and standard deviation. Natural photographs have
// low MSCN energy; processing artifacts raise it.
func assessNatural(luma *imaging.Plane) float64 {
	norm := luma.Crop(0).Scale(1.0 / 255)
	kernel := imaging.GaussianKernel2D(naturalKernelSize, naturalSigma)

	mu := imaging.ConvolveValid(norm, kernel)
	if len(mu.Pix) == 0 {
		return degenerateFallback
	}

	sq := &imaging.Plane{Width: norm.Width, Height: norm.Height, Pix: make([]float64, len(norm.Pix))}
	for i, v := range norm.Pix {
		sq.Pix[i] = v * v
	}
	muSq := imaging.ConvolveValid(sq, kernel)

	// Center crop of the normalized luma aligned with the valid region.
	center := norm.Crop(naturalKernelSize / 2)

	mscn := &imaging.Plane{Width: mu.Width, Height: mu.Height, Pix: make([]float64, len(mu.Pix))}
	for i := range mu.Pix {
		sigma := math.Sqrt(math.Abs(muSq.Pix[i] - mu.Pix[i]*mu.Pix[i] + mscnEpsilon))
		mscn.Pix[i] = (center.Pix[i] - mu.Pix[i]) / (sigma + mscnEpsilon)
	}

	energy := mscn.MeanAbs()
	spread := mscn.StdDev()

	return 100 * math.Exp(-energy/2) * (1 + 1/(1+spread))
}

// clamp limits a score to the [0, 100] range.
func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
