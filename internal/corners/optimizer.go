package corners

import (
	"image"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Exit causes reported by SimplexOptimizer.
const (
	ExitMaximumFound   = "maximum found"
	ExitMappedBasin    = "entered mapped basin"
	ExitIterationLimit = "iteration limit reached"
)

// Objective is minimized over integer pixel positions.
type Objective func(p image.Point) float64

// OptimizeResult is the outcome of one local optimization. Position and Value
// describe the best pixel evaluated; they are meaningful only when ExitCause
// is ExitMaximumFound.
type OptimizeResult struct {
	Position  image.Point
	Value     float64
	ExitCause string
}

// LocalOptimizer minimizes an objective from a start pixel inside bounds,
// painting every pixel it evaluates into basins with a fresh basin id.
// The start pixel must be painted by the time Minimize returns.
type LocalOptimizer interface {
	Minimize(f Objective, start image.Point, bounds image.Rectangle, basins *BasinGrid) OptimizeResult
}

// SimplexOptimizer is a Nelder-Mead descent quantized to the pixel grid.
//
// Every probe is rounded to the nearest pixel, clamped to bounds and to
// MaxStep pixels per axis from the incumbent best. A run stops with
// ExitMappedBasin as soon as its incumbent lies in a basin painted by an
// earlier run, since that neighbourhood already leads to a known maximum.
type SimplexOptimizer struct {
	MaxIters           int
	MaxStep            int
	InitialSimplexSize float64

	// StallIterations is how many major iterations without improvement count
	// as convergence. 0 means 10.
	StallIterations int
}

// NewSimplexOptimizer returns an optimizer configured from cfg.
func NewSimplexOptimizer(cfg SimplexConfig) *SimplexOptimizer {
	return &SimplexOptimizer{
		MaxIters:           cfg.MaxIters,
		MaxStep:            cfg.MaxStep,
		InitialSimplexSize: cfg.InitialSimplexSize,
	}
}

// Minimize implements LocalOptimizer.
func (o *SimplexOptimizer) Minimize(f Objective, start image.Point, bounds image.Rectangle, basins *BasinGrid) OptimizeResult {
	run := &simplexRun{
		f:         f,
		bounds:    bounds,
		basins:    basins,
		id:        basins.NewBasinID(),
		maxStep:   o.MaxStep,
		best:      start,
		bestValue: math.Inf(1),
	}
	run.eval(start)

	stall := o.StallIterations
	if stall == 0 {
		stall = 10
	}
	settings := &optimize.Settings{
		MajorIterations: o.MaxIters,
		Converger: &basinConverger{
			run:   run,
			inner: &optimize.FunctionConverge{Absolute: 1e-12, Iterations: stall},
		},
	}
	method := &optimize.NelderMead{SimplexSize: o.InitialSimplexSize}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return run.eval(image.Pt(int(math.Round(x[0])), int(math.Round(x[1]))))
		},
	}

	result, err := optimize.Minimize(problem, []float64{float64(start.X), float64(start.Y)}, settings, method)

	out := OptimizeResult{Position: run.best, Value: run.bestValue}
	switch {
	case run.trespassed:
		out.ExitCause = ExitMappedBasin
	case result == nil:
		out.ExitCause = err.Error()
	case result.Status == optimize.FunctionConvergence, result.Status == optimize.MethodConverge:
		out.ExitCause = ExitMaximumFound
	case result.Status == optimize.IterationLimit, result.Status == optimize.FunctionEvaluationLimit:
		out.ExitCause = ExitIterationLimit
	case err != nil:
		out.ExitCause = err.Error()
	default:
		out.ExitCause = result.Status.String()
	}
	return out
}

// simplexRun is the state of one Minimize call.
type simplexRun struct {
	f       Objective
	bounds  image.Rectangle
	basins  *BasinGrid
	id      int
	maxStep int

	best       image.Point
	bestValue  float64
	trespassed bool
}

// eval maps a probe onto an admissible pixel, paints it and evaluates it.
func (r *simplexRun) eval(p image.Point) float64 {
	p.X = clampInt(p.X, r.best.X-r.maxStep, r.best.X+r.maxStep)
	p.Y = clampInt(p.Y, r.best.Y-r.maxStep, r.best.Y+r.maxStep)
	p.X = clampInt(p.X, r.bounds.Min.X, r.bounds.Max.X-1)
	p.Y = clampInt(p.Y, r.bounds.Min.Y, r.bounds.Max.Y-1)

	r.basins.Claim(p, r.id)
	v := r.f(p)
	if v < r.bestValue {
		r.best, r.bestValue = p, v
	}
	return v
}

// basinConverger stops a run whose incumbent entered a foreign basin and
// otherwise defers to function-value convergence.
type basinConverger struct {
	run   *simplexRun
	inner *optimize.FunctionConverge
}

func (c *basinConverger) Init(dim int) {
	c.inner.Init(dim)
}

func (c *basinConverger) Converged(loc *optimize.Location) optimize.Status {
	if owner := c.run.basins.At(c.run.best); owner != 0 && owner != c.run.id {
		c.run.trespassed = true
		return optimize.MethodConverge
	}
	return c.inner.Converged(loc)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
