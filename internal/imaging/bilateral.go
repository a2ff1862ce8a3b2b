package imaging

import "math"

// bilateralDiameter is the neighborhood diameter used by the bilateral
// filter. 5 keeps the filter cheap while still averaging over enough
// neighbors to suppress sensor noise.
const bilateralDiameter = 5

// Bilateral applies edge-preserving smoothing to the plane. Neighbors are
// weighted by both spatial distance (sigmaSpace) and intensity difference
// (sigmaRange), so flat regions are averaged while edges survive.
// The plane is on the [0, 255] scale; output has the same dimensions.
func Bilateral(p *Plane, sigmaSpace, sigmaRange float64) *Plane {
	if sigmaSpace <= 0 || sigmaRange <= 0 {
		out := &Plane{Width: p.Width, Height: p.Height, Pix: make([]float64, len(p.Pix))}
		copy(out.Pix, p.Pix)
		return out
	}

	radius := bilateralDiameter / 2
	spatial := make([]float64, bilateralDiameter*bilateralDiameter)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*bilateralDiameter+(dx+radius)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}

	out := &Plane{Width: p.Width, Height: p.Height, Pix: make([]float64, len(p.Pix))}
	twoRange := 2 * sigmaRange * sigmaRange
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			center := p.at(x, y)
			sum, wsum := 0.0, 0.0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					v := p.at(x+dx, y+dy)
					diff := v - center
					w := spatial[(dy+radius)*bilateralDiameter+(dx+radius)] * math.Exp(-diff*diff/twoRange)
					sum += v * w
					wsum += w
				}
			}
			out.Pix[y*p.Width+x] = sum / wsum
		}
	}
	return out
}

// BilateralStrength maps a 0–10 denoise strength to the sigma pair used by
// Bilateral. Strength 10 corresponds to sigma 50 for both domains.
func BilateralStrength(strength float64) (sigmaSpace, sigmaRange float64) {
	s := 50 * strength / 10
	return s, s
}
