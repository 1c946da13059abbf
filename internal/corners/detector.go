package corners

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/donut-corners-mcp/internal/imaging"
)

// Strategy names a maxima search.
type Strategy string

const (
	// StrategyRays is the queue-driven ray-following search.
	StrategyRays Strategy = "rays"
	// StrategyBasin is the basin-guided descent search.
	StrategyBasin Strategy = "basin"
)

// ParseStrategy validates a strategy name. The empty string selects StrategyRays.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyRays:
		return StrategyRays, nil
	case StrategyBasin:
		return StrategyBasin, nil
	}
	return "", fmt.Errorf("unknown strategy %q: want %q or %q", s, StrategyRays, StrategyBasin)
}

// Detector holds a validated configuration and its kernel set. It is
// immutable and may be shared by sessions on different goroutines.
type Detector struct {
	cfg       Config
	method    EvalMethod
	kernel    *KernelSet
	optimizer LocalOptimizer
	log       *zap.Logger
}

// Option customizes a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for search progress.
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// WithOptimizer replaces the basin search's local optimizer.
func WithOptimizer(o LocalOptimizer) Option {
	return func(d *Detector) {
		if o != nil {
			d.optimizer = o
		}
	}
}

// NewDetector validates cfg and builds its kernel set.
func NewDetector(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kernel, err := BuildKernel(cfg)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:       cfg,
		method:    cfg.EvalMethod.Method(),
		kernel:    kernel,
		optimizer: NewSimplexOptimizer(cfg.Simplex),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Kernel returns the shared kernel set.
func (d *Detector) Kernel() *KernelSet {
	return d.kernel
}

// NewSession preprocesses img and starts a detection pass over it.
func (d *Detector) NewSession(img image.Image) (*Session, error) {
	gray, err := imaging.NewPaddedGray(img, d.cfg.BeamLength)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess image: %w", err)
	}
	return d.NewSessionFromGray(gray)
}

// NewSessionFromGray starts a pass over an already padded buffer. The buffer
// padding must be at least the beam length.
func (d *Detector) NewSessionFromGray(gray *imaging.GrayBuffer) (*Session, error) {
	if gray.Pad < d.cfg.BeamLength {
		return nil, fmt.Errorf("buffer padding %d is smaller than beam length %d", gray.Pad, d.cfg.BeamLength)
	}
	return &Session{
		det:     d,
		field:   newScoreField(gray, d.kernel, d.method),
		basins:  NewBasinGrid(gray.Width, gray.Height, d.cfg.Search.EdgeOffset),
		corners: newCornerList(),
	}, nil
}

// SearchStats describes the work done by the searches of a session.
type SearchStats struct {
	Rounds       int   `json:"rounds"`        // basin search optimizer runs
	Dequeues     int   `json:"dequeues"`      // ray search tasks processed
	PeakQueue    int   `json:"peak_queue"`    // largest ray search queue length
	Evaluations  int64 `json:"evaluations"`   // scoring windows extracted
	CornersFound int   `json:"corners_found"`
}

// Session is one detection pass over one image. It owns the score cache, the
// basin grid and the corner list; searches run on the same session share
// them. A Session is not safe for concurrent use.
type Session struct {
	det     *Detector
	field   *ScoreField
	basins  *BasinGrid
	corners *CornerList
	stats   SearchStats
}

// Field returns the session's score field.
func (s *Session) Field() *ScoreField {
	return s.field
}

// Score returns the aggregate strength at p (0 outside the image).
func (s *Session) Score(p image.Point) float64 {
	return s.field.Score(p)
}

// ScoreDetail returns the evaluation at p and whether it was cached.
func (s *Session) ScoreDetail(p image.Point) (*Score, bool) {
	return s.field.Detail(p)
}

// ScoreAll scores every pixel in parallel; see ScoreField.ScoreAll.
func (s *Session) ScoreAll() [][]float64 {
	return s.field.ScoreAll()
}

// Evaluations returns the number of scoring windows extracted so far.
func (s *Session) Evaluations() int64 {
	return s.field.Evaluations()
}

// Basins returns the basin ownership grid.
func (s *Session) Basins() *BasinGrid {
	return s.basins
}

// Corners returns every corner recorded so far, in insertion order.
func (s *Session) Corners() []Corner {
	return s.corners.All()
}

// Stats returns the accumulated search statistics.
func (s *Session) Stats() SearchStats {
	st := s.stats
	st.Evaluations = s.field.Evaluations()
	st.CornersFound = s.corners.Len()
	return st
}

// FindCorners runs the named strategy and returns the ranked corners.
func (s *Session) FindCorners(strategy Strategy) ([]Corner, error) {
	switch strategy {
	case StrategyRays:
		return s.FindCornersRays(), nil
	case StrategyBasin:
		return s.FindCornersBasin(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}
