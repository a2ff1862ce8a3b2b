package imaging

import "math"

// Kernel is a square 2D convolution kernel stored row-major.
type Kernel struct {
	Size int
	Coef []float64 // len = Size * Size
}

// GaussianKernel1D builds a 1D Gaussian kernel of the given size and sigma,
// normalized to sum 1. Size must be odd and positive.
func GaussianKernel1D(size int, sigma float64) []float64 {
	k := make([]float64, size)
	center := float64(size-1) / 2
	sum := 0.0
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianKernel2D builds a 2D Gaussian kernel as the outer product of two
// identical 1D kernels. The result sums to 1, so convolution preserves the
// mean intensity.
func GaussianKernel2D(size int, sigma float64) *Kernel {
	k1 := GaussianKernel1D(size, sigma)
	k := &Kernel{Size: size, Coef: make([]float64, size*size)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			k.Coef[y*size+x] = k1[y] * k1[x]
		}
	}
	return k
}

// ConvolveValid convolves the plane with the kernel in "valid" mode: the
// output shrinks by the kernel radius on every side. A plane smaller than
// the kernel yields a zero-area plane.
func ConvolveValid(p *Plane, k *Kernel) *Plane {
	radius := k.Size / 2
	w := p.Width - 2*radius
	h := p.Height - 2*radius
	if w <= 0 || h <= 0 {
		return &Plane{}
	}
	out := &Plane{Width: w, Height: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for ky := 0; ky < k.Size; ky++ {
				row := (y + ky) * p.Width
				krow := ky * k.Size
				for kx := 0; kx < k.Size; kx++ {
					sum += p.Pix[row+x+kx] * k.Coef[krow+kx]
				}
			}
			out.Pix[y*w+x] = sum
		}
	}
	return out
}

// ConvolveSame convolves the plane with the kernel in "same" mode: output
// dimensions match the input, with edge replication at the borders.
func ConvolveSame(p *Plane, k *Kernel) *Plane {
	radius := k.Size / 2
	out := &Plane{Width: p.Width, Height: p.Height, Pix: make([]float64, len(p.Pix))}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			sum := 0.0
			for ky := 0; ky < k.Size; ky++ {
				krow := ky * k.Size
				for kx := 0; kx < k.Size; kx++ {
					sum += p.at(x+kx-radius, y+ky-radius) * k.Coef[krow+kx]
				}
			}
			out.Pix[y*p.Width+x] = sum
		}
	}
	return out
}

// Laplacian applies the discrete 4-neighbor second-derivative operator
// (same dimensions, edge replication). The variance of the result is the
// sharpness proxy used by the quality assessor.
func Laplacian(p *Plane) *Plane {
	out := &Plane{Width: p.Width, Height: p.Height, Pix: make([]float64, len(p.Pix))}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.at(x-1, y) + p.at(x+1, y) + p.at(x, y-1) + p.at(x, y+1) - 4*p.at(x, y)
			out.Pix[y*p.Width+x] = v
		}
	}
	return out
}
