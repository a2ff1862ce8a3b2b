package quality

import (
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/imaging"
)

// Verdict identifies which of two compared images scored higher overall.
type Verdict string

const (
	// VerdictABetter means the first image scored at least as high as the
	// second. Ties resolve here so comparison output is deterministic.
	VerdictABetter Verdict = "a_better"

	// VerdictBBetter means the second image scored strictly higher.
	VerdictBBetter Verdict = "b_better"
)

// Comparison is the result of assessing two images side by side.
// Differences holds second-minus-first for every metric key.
type Comparison struct {
	MetricsA    Metrics `json:"image1_metrics"`
	MetricsB    Metrics `json:"image2_metrics"`
	Differences Metrics `json:"differences"`
	Verdict     Verdict `json:"comparison"`
}

// Sub returns the per-key difference m − other.
func (m Metrics) Sub(other Metrics) Metrics {
	return Metrics{
		Sharpness:    m.Sharpness - other.Sharpness,
		Contrast:     m.Contrast - other.Contrast,
		Noise:        m.Noise - other.Noise,
		Natural:      m.Natural - other.Natural,
		OverallScore: m.OverallScore - other.OverallScore,
	}
}

// CompareMetrics builds a Comparison from two already-computed metric sets.
func CompareMetrics(a, b Metrics) Comparison {
	verdict := VerdictABetter
	if b.OverallScore > a.OverallScore {
		verdict = VerdictBBetter
	}
	return Comparison{
		MetricsA:    a,
		MetricsB:    b,
		Differences: b.Sub(a),
		Verdict:     verdict,
	}
}

// Compare assesses both grids independently and reports their metric sets,
// per-key differences (second minus first), and the overall verdict.
func Compare(a, b *imaging.Grid) Comparison {
	cmp := CompareMetrics(Assess(a), Assess(b))
	log.Debug().
		Float64("score_a", cmp.MetricsA.OverallScore).
		Float64("score_b", cmp.MetricsB.OverallScore).
		Str("verdict", string(cmp.Verdict)).
		Msg("Image comparison complete")
	return cmp
}
