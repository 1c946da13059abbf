package corners

import (
	"image"
	"math"
	"sync/atomic"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/donut-corners-mcp/internal/imaging"
)

// EvalMethod selects the score representation: Amorphous or Sectional.
type EvalMethod interface {
	evalMethod()
}

// Amorphous scores a pixel by the mean response over all beams.
type Amorphous struct{}

// Sectional scores a pixel by its MaxN strongest beams, extracted with
// non-max suppression.
type Sectional struct {
	EliminationWidth int
	MaxN             int
	ElimDoubleEnds   bool
}

func (Amorphous) evalMethod() {}
func (Sectional) evalMethod() {}

// Score is the cached evaluation of one pixel. Angles, Strengths and BeamIDs
// are only set in sectional mode, strongest first.
type Score struct {
	Strength  float64   `json:"strength"`
	Angles    []float64 `json:"angles,omitempty"`
	Strengths []float64 `json:"strengths,omitempty"`
	BeamIDs   []int     `json:"beam_ids,omitempty"`
}

// withStrength returns a copy of s carrying a different aggregate strength.
// Cached entries are never modified.
func (s *Score) withStrength(v float64) *Score {
	c := *s
	c.Strength = v
	return &c
}

// responseFloor is the smallest beam response kept. The two prongs are
// normalized separately, so on uniform pixels their weights cancel only up
// to rounding.
const responseFloor = 1e-9

// ScoreField lazily scores pixels of one padded image and caches the results.
//
// Entries are computed on first use and never change afterwards. The field
// has a single logical writer: Score and Detail must not be called
// concurrently. ScoreAll parallelizes internally over rows.
type ScoreField struct {
	gray   *imaging.GrayBuffer
	kernel *KernelSet
	method EvalMethod

	cache       []*Score
	evaluations atomic.Int64

	window []float64
	means  []float64
	gather []float64
}

func newScoreField(gray *imaging.GrayBuffer, kernel *KernelSet, method EvalMethod) *ScoreField {
	return &ScoreField{
		gray:   gray,
		kernel: kernel,
		method: method,
		cache:  make([]*Score, gray.Width*gray.Height),
	}
}

// Bounds returns the scorable region [0,width)x[0,height).
func (f *ScoreField) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.gray.Width, f.gray.Height)
}

// InBounds reports whether p can be scored.
func (f *ScoreField) InBounds(p image.Point) bool {
	return f.gray.InBounds(p.X, p.Y)
}

// Score returns the aggregate strength at p, or exactly 0 outside the image.
func (f *ScoreField) Score(p image.Point) float64 {
	s, _ := f.Detail(p)
	return s.Strength
}

// Detail returns the full evaluation at p and whether it came from the cache.
// Outside the image it returns a fresh zero score and false.
func (f *ScoreField) Detail(p image.Point) (*Score, bool) {
	if !f.InBounds(p) {
		return &Score{}, false
	}
	i := p.Y*f.gray.Width + p.X
	if s := f.cache[i]; s != nil {
		return s, true
	}
	s := f.compute(p, &f.window, &f.means, &f.gather)
	f.cache[i] = s
	return s, false
}

// Cached reports whether p has been evaluated.
func (f *ScoreField) Cached(p image.Point) bool {
	return f.InBounds(p) && f.cache[p.Y*f.gray.Width+p.X] != nil
}

// Evaluations returns how many scoring windows have been extracted.
func (f *ScoreField) Evaluations() int64 {
	return f.evaluations.Load()
}

// ScoreAll evaluates every pixel, rows in parallel, and returns the strengths
// indexed [y][x]. Results are installed into the cache afterwards; pixels
// already cached are not recomputed.
func (f *ScoreField) ScoreAll() [][]float64 {
	width, height := f.gray.Width, f.gray.Height
	computed := make([]*Score, len(f.cache))

	parallel.Line(height, func(start, end int) {
		var window, means, gather []float64
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				i := y*width + x
				if f.cache[i] != nil {
					continue
				}
				computed[i] = f.compute(image.Pt(x, y), &window, &means, &gather)
			}
		}
	})

	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			i := y*width + x
			if f.cache[i] == nil {
				f.cache[i] = computed[i]
			}
			out[y][x] = f.cache[i].Strength
		}
	}
	return out
}

// compute scores p using caller-owned scratch buffers.
func (f *ScoreField) compute(p image.Point, window, means, gather *[]float64) *Score {
	*window = f.gray.Window(p.X, p.Y, f.kernel.Radius, *window)
	f.evaluations.Add(1)

	beams := f.kernel.Beams
	if cap(*means) < len(beams) {
		*means = make([]float64, len(beams))
	}
	m := (*means)[:len(beams)]
	for k, b := range beams {
		if cap(*gather) < len(b.Offsets) {
			*gather = make([]float64, len(b.Offsets))
		}
		g := (*gather)[:len(b.Offsets)]
		for j, off := range b.Offsets {
			g[j] = (*window)[off]
		}
		m[k] = math.Abs(floats.Dot(b.Weights, g) / float64(len(g)))
		if m[k] < responseFloor {
			m[k] = 0
		}
	}

	switch method := f.method.(type) {
	case Sectional:
		return f.sectional(m, method)
	default:
		return &Score{Strength: stat.Mean(m, nil)}
	}
}

func (f *ScoreField) sectional(means []float64, method Sectional) *Score {
	s := &Score{
		Angles:    make([]float64, method.MaxN),
		Strengths: make([]float64, method.MaxN),
		BeamIDs:   make([]int, method.MaxN),
	}
	for n := 0; n < method.MaxN; n++ {
		idx, val := ExtractMax(means, method.EliminationWidth, method.ElimDoubleEnds)
		s.BeamIDs[n] = idx
		s.Strengths[n] = val
		s.Angles[n] = f.kernel.Beams[idx].Angle
	}
	s.Strength = stat.Mean(s.Strengths, nil)
	return s
}
