// Package imaging provides the pixel grid type and the spatial filter
// primitives (Gaussian kernels, 2D convolution, Laplacian, bilateral
// smoothing) shared by the quality assessor and the enhancement engine.
//
// Everything in this package is pure numeric code with no I/O and no
// mutable package state, so all functions are safe for concurrent use.
package imaging

import (
	"image"
	"math"
)

// Grid is a decoded image: row-major rows of interleaved channel samples,
// 8-bit per sample. Channels is 1 (grayscale) or 3 (RGB). A zero-area grid
// is a legal value — callers that cannot work on it degrade explicitly
// rather than panic.
type Grid struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8 // len = Width * Height * Channels
}

// Plane is a single-channel float64 raster used as the working type for
// convolutions and per-channel statistics.
type Plane struct {
	Width  int
	Height int
	Pix    []float64 // len = Width * Height
}

// NewGrid allocates a zeroed grid. Channels must be 1 or 3; width and
// height may be zero.
func NewGrid(width, height, channels int) *Grid {
	return &Grid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// NewGridFromFloat builds a grid from float samples, clamping to [0, 255]
// and rounding to the nearest 8-bit value. This is the single quantization
// point for non-8-bit inputs: the same floats always produce the same grid.
func NewGridFromFloat(width, height, channels int, pix []float64) *Grid {
	g := NewGrid(width, height, channels)
	for i := range g.Pix {
		g.Pix[i] = quantize(pix[i])
	}
	return g
}

// quantize clamps v to [0, 255] and rounds to the nearest integer.
func quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Empty reports whether the grid is nil, has zero area, or carries an
// unsupported channel count. Empty grids produce zeroed quality metrics
// instead of errors.
func (g *Grid) Empty() bool {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return true
	}
	return g.Channels != 1 && g.Channels != 3
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Channels: g.Channels, Pix: make([]uint8, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// At returns the sample at (x, y) for channel c.
func (g *Grid) At(x, y, c int) uint8 {
	return g.Pix[(y*g.Width+x)*g.Channels+c]
}

// Luminance converts the grid to a single-channel float plane on the
// [0, 255] scale using the Rec. 601 luma weights. A grayscale grid is
// copied as-is.
func (g *Grid) Luminance() *Plane {
	p := &Plane{Width: g.Width, Height: g.Height, Pix: make([]float64, g.Width*g.Height)}
	if g.Channels == 1 {
		for i, v := range g.Pix {
			p.Pix[i] = float64(v)
		}
		return p
	}
	for i := 0; i < g.Width*g.Height; i++ {
		r := float64(g.Pix[i*3])
		gr := float64(g.Pix[i*3+1])
		b := float64(g.Pix[i*3+2])
		p.Pix[i] = 0.299*r + 0.587*gr + 0.114*b
	}
	return p
}

// Channel extracts channel c as a float plane on the [0, 255] scale.
func (g *Grid) Channel(c int) *Plane {
	p := &Plane{Width: g.Width, Height: g.Height, Pix: make([]float64, g.Width*g.Height)}
	for i := 0; i < g.Width*g.Height; i++ {
		p.Pix[i] = float64(g.Pix[i*g.Channels+c])
	}
	return p
}

// FromImage converts a decoded stdlib image into a grid. *image.Gray
// becomes a single-channel grid, everything else 3-channel RGB.
func FromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if gray, ok := img.(*image.Gray); ok {
		g := NewGrid(w, h, 1)
		for y := 0; y < h; y++ {
			row := gray.Pix[y*gray.Stride:]
			copy(g.Pix[y*w:(y+1)*w], row[:w])
		}
		return g
	}
	g := NewGrid(w, h, 3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gr, b, _ := img.At(x, y).RGBA()
			g.Pix[i] = uint8(r >> 8)
			g.Pix[i+1] = uint8(gr >> 8)
			g.Pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return g
}

// ToImage converts the grid back to a stdlib image for re-encoding.
// Grayscale grids become *image.Gray, 3-channel grids *image.NRGBA.
func (g *Grid) ToImage() image.Image {
	if g.Channels == 1 {
		out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
		copy(out.Pix, g.Pix)
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i := 0; i < g.Width*g.Height; i++ {
		out.Pix[i*4] = g.Pix[i*3]
		out.Pix[i*4+1] = g.Pix[i*3+1]
		out.Pix[i*4+2] = g.Pix[i*3+2]
		out.Pix[i*4+3] = 255
	}
	return out
}

// at returns the plane sample at (x, y) with edge replication for
// out-of-range coordinates.
func (p *Plane) at(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= p.Width {
		x = p.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.Height {
		y = p.Height - 1
	}
	return p.Pix[y*p.Width+x]
}

// Crop returns the sub-plane with the given margin removed on every side.
// Returns a zero-area plane when the margin consumes the whole plane.
func (p *Plane) Crop(margin int) *Plane {
	w := p.Width - 2*margin
	h := p.Height - 2*margin
	if w <= 0 || h <= 0 {
		return &Plane{}
	}
	out := &Plane{Width: w, Height: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w:(y+1)*w], p.Pix[(y+margin)*p.Width+margin:(y+margin)*p.Width+margin+w])
	}
	return out
}

// Scale multiplies every sample in place and returns the plane.
func (p *Plane) Scale(f float64) *Plane {
	for i := range p.Pix {
		p.Pix[i] *= f
	}
	return p
}

// Mean returns the arithmetic mean of the plane, or 0 for a zero-area plane.
func (p *Plane) Mean() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range p.Pix {
		sum += v
	}
	return sum / float64(len(p.Pix))
}

// Variance returns the population variance of the plane.
func (p *Plane) Variance() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	mean := p.Mean()
	sum := 0.0
	for _, v := range p.Pix {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(p.Pix))
}

// StdDev returns the population standard deviation of the plane.
func (p *Plane) StdDev() float64 {
	return math.Sqrt(p.Variance())
}

// MeanAbs returns the mean of absolute sample values.
func (p *Plane) MeanAbs() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range p.Pix {
		sum += math.Abs(v)
	}
	return sum / float64(len(p.Pix))
}
