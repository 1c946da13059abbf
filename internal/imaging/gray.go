package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// GrayBuffer is a single-channel float intensity field with a symmetric border.
//
// The border replicates the outermost image pixels, so any window of radius
// Pad centered on an in-bounds pixel can be read without bounds checks.
// A GrayBuffer is never modified after construction and is safe for
// concurrent reads.
type GrayBuffer struct {
	// Width and Height are the dimensions of the unpadded image.
	Width  int
	Height int

	// Pad is the border thickness on every side.
	Pad int

	// Stride is the row length of Pix (Width + 2*Pad).
	Stride int

	// Pix holds padded intensities in row-major order, 0-255 scale.
	Pix []float64
}

// NewPaddedGray converts img to grayscale and pads it by pad pixels on every side.
//
// Intensity is the plain mean of the R, G and B channels in 8-bit scale.
// Padding uses edge replication. Images with a non-zero origin are rebased
// to (0,0) first.
func NewPaddedGray(img image.Image, pad int) (*GrayBuffer, error) {
	if pad < 0 {
		return nil, fmt.Errorf("invalid padding %d: must be >= 0", pad)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", width, height)
	}

	if bounds.Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	padded := clone.Pad(img, pad, pad, clone.EdgeExtend)

	stride := width + 2*pad
	rows := height + 2*pad
	pix := make([]float64, stride*rows)
	for y := 0; y < rows; y++ {
		src := padded.Pix[y*padded.Stride:]
		dst := pix[y*stride : (y+1)*stride]
		for x := range dst {
			i := x * 4
			dst[x] = (float64(src[i]) + float64(src[i+1]) + float64(src[i+2])) / 3
		}
	}

	return &GrayBuffer{
		Width:  width,
		Height: height,
		Pad:    pad,
		Stride: stride,
		Pix:    pix,
	}, nil
}

// NewGrayBufferFromRows builds a padded buffer directly from intensity rows.
// All rows must have the same length.
func NewGrayBufferFromRows(rows [][]float64, pad int) (*GrayBuffer, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("intensity rows are empty")
	}
	if pad < 0 {
		return nil, fmt.Errorf("invalid padding %d: must be >= 0", pad)
	}
	width, height := len(rows[0]), len(rows)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, want %d", y, len(row), width)
		}
	}

	g := &GrayBuffer{
		Width:  width,
		Height: height,
		Pad:    pad,
		Stride: width + 2*pad,
	}
	g.Pix = make([]float64, g.Stride*(height+2*pad))
	for y := -pad; y < height+pad; y++ {
		row := rows[clampIndex(y, height)]
		for x := -pad; x < width+pad; x++ {
			g.Pix[(y+pad)*g.Stride+x+pad] = row[clampIndex(x, width)]
		}
	}
	return g, nil
}

// InBounds reports whether (x, y) lies inside the unpadded image.
func (g *GrayBuffer) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the intensity at image coordinates (x, y). Coordinates up to Pad
// outside the image read the replicated border.
func (g *GrayBuffer) At(x, y int) float64 {
	return g.Pix[(y+g.Pad)*g.Stride+x+g.Pad]
}

// Values returns the unpadded intensities in row-major order.
func (g *GrayBuffer) Values() []float64 {
	out := make([]float64, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		start := (y+g.Pad)*g.Stride + g.Pad
		out = append(out, g.Pix[start:start+g.Width]...)
	}
	return out
}

// Window copies the (2r+1)x(2r+1) neighbourhood centered on (x, y) into dst in
// row-major order and returns it. dst is reallocated when too small.
// The caller guarantees r <= Pad and that (x, y) is in bounds.
func (g *GrayBuffer) Window(x, y, r int, dst []float64) []float64 {
	d := 2*r + 1
	if cap(dst) < d*d {
		dst = make([]float64, d*d)
	}
	dst = dst[:d*d]
	top := y + g.Pad - r
	left := x + g.Pad - r
	for wy := 0; wy < d; wy++ {
		start := (top+wy)*g.Stride + left
		copy(dst[wy*d:(wy+1)*d], g.Pix[start:start+d])
	}
	return dst
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
