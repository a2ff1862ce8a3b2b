// Package enhance derives bounded enhancement parameters from a quality
// gap and applies them to a pixel grid as a fixed-order chain of spatial
// filters: brightness, bilateral denoise, contrast stretch, unsharp mask,
// and HSV saturation boost.
package enhance

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/quality"
)

// Params is the enhancement parameter vector. Each field is derived
// independently from one quality-metric gap; zero means the stage is
// skipped entirely.
type Params struct {
	Sharpness  float64 `json:"sharpness"`  // [0, 0.8]
	Contrast   float64 `json:"contrast"`   // [0, 0.6]
	Denoise    float64 `json:"denoise"`    // [0, 0.7]
	Color      float64 `json:"color"`      // [0, 0.5]
	Brightness float64 `json:"brightness"` // [0, 0.2*level]
}

// Threshold and cap constants for parameter derivation. Fixed at compile
// time: the thresholds decide whether a gap is worth correcting, the caps
// bound how aggressive any single stage may get.
const (
	metricGapThreshold  = -5.0
	overallGapThreshold = -10.0

	sharpnessCap = 0.8
	contrastCap  = 0.6
	denoiseCap   = 0.7
	colorCap     = 0.5

	brightnessFactor = 0.2
)

// stageSkipThreshold is the value below which an enhancement stage is a
// no-op. Keeps near-zero parameters from paying for a full filter pass.
const stageSkipThreshold = 0.01

// GenerateParams maps a quality difference vector (better-image metrics
// minus target metrics, so deficits are negative) to enhancement
// parameters. level in [0, 1] scales the strength of every derived value;
// 0.5 is the normal setting.
func GenerateParams(diff quality.Metrics, level float64) Params {
	var p Params

	if diff.Sharpness < metricGapThreshold {
		p.Sharpness = math.Min(sharpnessCap, math.Abs(diff.Sharpness)/100*level)
	}
	if diff.Contrast < metricGapThreshold {
		p.Contrast = math.Min(contrastCap, math.Abs(diff.Contrast)/100*level)
	}
	if diff.Noise < metricGapThreshold {
		p.Denoise = math.Min(denoiseCap, math.Abs(diff.Noise)/100*level)
	}
	if diff.Natural < metricGapThreshold {
		p.Color = math.Min(colorCap, math.Abs(diff.Natural)/100*level)
	}
	if diff.OverallScore < overallGapThreshold {
		p.Brightness = brightnessFactor * level
	}

	log.Debug().
		Float64("sharpness", p.Sharpness).
		Float64("contrast", p.Contrast).
		Float64("denoise", p.Denoise).
		Float64("color", p.Color).
		Float64("brightness", p.Brightness).
		Msg("Enhancement parameters generated")

	return p
}

// Zero reports whether every stage would be skipped.
func (p Params) Zero() bool {
	return p.Sharpness <= stageSkipThreshold &&
		p.Contrast <= stageSkipThreshold &&
		p.Denoise <= stageSkipThreshold &&
		p.Color <= stageSkipThreshold &&
		p.Brightness <= stageSkipThreshold
}
