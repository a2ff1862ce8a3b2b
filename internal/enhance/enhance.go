package enhance

import (
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/imaging"
)

// Unsharp-mask blur kernel parameters. Same kernel family the assessor's
// noise estimate uses, applied in "same" mode so dimensions are preserved.
const (
	sharpenKernelSize = 5
	sharpenSigma      = 1.0
)

// brightnessGain converts the brightness parameter to a multiplicative
// gain: param 0.2 brightens by 10%.
const brightnessGain = 0.5

// saturationGain converts the color parameter to a saturation multiplier:
// param 0.5 boosts saturation by 25%.
const saturationGain = 0.5

// Apply runs the enhancement chain on the grid and returns a new grid; the
// input is never modified. Stages execute in a fixed order regardless of
// which parameters are set: brightness first to establish a stable working
// baseline, denoising before contrast and sharpening so those stages do
// not amplify noise, and the saturation boost last. Stages at or below the
// skip threshold are omitted. The output is clipped and re-quantized to
// 8-bit; with all parameters zero the result is bit-identical to the input.
func Apply(g *imaging.Grid, p Params) *imaging.Grid {
	if g.Empty() || p.Zero() {
		return g.Clone()
	}

	// Float working copy on the [0, 255] scale.
	work := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		work[i] = float64(v)
	}

	if p.Brightness > stageSkipThreshold {
		applyBrightness(work, p.Brightness)
	}
	if p.Denoise > stageSkipThreshold {
		applyDenoise(work, g, p.Denoise)
	}
	if p.Contrast > stageSkipThreshold {
		applyContrast(work, p.Contrast)
	}
	if p.Sharpness > stageSkipThreshold {
		applySharpen(work, g, p.Sharpness)
	}
	if p.Color > stageSkipThreshold && g.Channels == 3 {
		applySaturation(work, p.Color)
	}

	log.Debug().
		Int("width", g.Width).
		Int("height", g.Height).
		Int("channels", g.Channels).
		Msg("Enhancement chain applied")

	return imaging.NewGridFromFloat(g.Width, g.Height, g.Channels, work)
}

// applyBrightness scales every sample by a gain derived from the parameter.
func applyBrightness(work []float64, param float64) {
	gain := 1 + param*brightnessGain
	for i := range work {
		work[i] = clip255(work[i] * gain)
	}
}

// applyDenoise runs the bilateral filter over each channel independently.
// The parameter maps to a 0–10 strength, which sets both sigmas.
func applyDenoise(work []float64, g *imaging.Grid, param float64) {
	sigmaSpace, sigmaRange := imaging.BilateralStrength(param * 10)
	for c := 0; c < g.Channels; c++ {
		plane := extractChannel(work, g, c)
		smoothed := imaging.Bilateral(plane, sigmaSpace, sigmaRange)
		for i, v := range smoothed.Pix {
			work[i*g.Channels+c] = v
		}
	}
}

// applyContrast stretches samples away from the whole-image mean.
func applyContrast(work []float64, param float64) {
	mean := 0.0
	for _, v := range work {
		mean += v
	}
	mean /= float64(len(work))

	gain := 1 + param
	for i := range work {
		work[i] = clip255(mean + (work[i]-mean)*gain)
	}
}

// applySharpen applies an unsharp mask per channel: the difference between
// a channel and its Gaussian blur is scaled and added back.
func applySharpen(work []float64, g *imaging.Grid, param float64) {
	kernel := imaging.GaussianKernel2D(sharpenKernelSize, sharpenSigma)
	for c := 0; c < g.Channels; c++ {
		plane := extractChannel(work, g, c)
		blurred := imaging.ConvolveSame(plane, kernel)
		for i := range plane.Pix {
			work[i*g.Channels+c] = clip255(plane.Pix[i] + (plane.Pix[i]-blurred.Pix[i])*param)
		}
	}
}

// applySaturation boosts saturation in HSV space. Only meaningful for
// 3-channel grids; the caller guards the channel count.
func applySaturation(work []float64, param float64) {
	gain := 1 + param*saturationGain
	for i := 0; i < len(work); i += 3 {
		h, s, v := rgbToHSV(work[i], work[i+1], work[i+2])
		s = s * gain
		if s > 1 {
			s = 1
		}
		r, g, b := hsvToRGB(h, s, v)
		work[i] = clip255(r)
		work[i+1] = clip255(g)
		work[i+2] = clip255(b)
	}
}

// extractChannel copies channel c of the float working buffer into a plane.
func extractChannel(work []float64, g *imaging.Grid, c int) *imaging.Plane {
	p := &imaging.Plane{Width: g.Width, Height: g.Height, Pix: make([]float64, g.Width*g.Height)}
	for i := range p.Pix {
		p.Pix[i] = work[i*g.Channels+c]
	}
	return p
}

// clip255 clamps v to the valid 8-bit intensity range.
func clip255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
