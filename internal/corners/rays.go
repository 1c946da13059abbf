package corners

import (
	"image"
	"math"

	"go.uber.org/zap"
)

// searchMode is the stage of a ray search task.
//
//	mode         probes                                  on outcome
//	seed         score the point                         > MinGrid: longRay at same point
//	longRay      ±{0.3,0.5,0.7}·beam_length, top angles  weak: longRay at best; peak/strong: shortRay at best
//	shortRay     ±{1.4,2.8,5.6}, top angles              weak: shortRay at best; peak/strong: bruteForce at best
//	bruteForce   1.4 along 8 compass directions          peak: record corner, sweep with halved strength
//	                                                     otherwise: bruteForce at best
//	sweep        ±{1,1.5,2}·beam_length, carried angles  improved: longRay at best; peak: done
type searchMode int

const (
	modeSeed searchMode = iota + 1
	modeLongRay
	modeShortRay
	modeBruteForce
	modeSweep
)

func (m searchMode) String() string {
	switch m {
	case modeSeed:
		return "seed"
	case modeLongRay:
		return "long-ray"
	case modeShortRay:
		return "short-ray"
	case modeBruteForce:
		return "brute-force"
	case modeSweep:
		return "sweep"
	}
	return "unknown"
}

// raySignal classifies a probe round.
type raySignal int

const (
	// signalPeak: no probe beat the current point.
	signalPeak raySignal = iota
	// signalWeak: the best probe was at distance index 0 or at the index
	// equal to the last angle index.
	signalWeak
	// signalStrong: the best probe was at an inner distance.
	signalStrong
)

// advance returns the follow-up mode for a ray-following stage. A weak
// signal keeps the stage and re-probes from the new point; anything else
// moves one stage finer.
func (m searchMode) advance(sig raySignal) searchMode {
	if sig == signalWeak {
		return m
	}
	switch m {
	case modeLongRay:
		return modeShortRay
	case modeShortRay:
		return modeBruteForce
	}
	return m
}

var (
	longRayFactors  = []float64{-0.7, -0.5, -0.3, 0.3, 0.5, 0.7}
	shortRayDists   = []float64{-5.6, -2.8, -1.4, 1.4, 2.8, 5.6}
	bruteForceDists = []float64{1.4}
	sweepFactors    = []float64{-2, -1.5, -1, 1, 1.5, 2}
	compassAngles   = []float64{0, math.Pi / 4, math.Pi / 2, 3 * math.Pi / 4, math.Pi, 5 * math.Pi / 4, 3 * math.Pi / 2, 7 * math.Pi / 4}
)

type searchTask struct {
	mode searchMode
	pos  image.Point
	info *Score
}

type visitKey struct {
	mode searchMode
	pos  image.Point
}

// rayQueue is the FIFO work queue of one ray search, deduplicated on
// (mode, position).
type rayQueue struct {
	tasks   []searchTask
	head    int
	visited map[visitKey]struct{}
	peak    int
}

func (q *rayQueue) push(t searchTask) {
	key := visitKey{mode: t.mode, pos: t.pos}
	if _, ok := q.visited[key]; ok {
		return
	}
	q.visited[key] = struct{}{}
	q.tasks = append(q.tasks, t)
	if n := len(q.tasks) - q.head; n > q.peak {
		q.peak = n
	}
}

func (q *rayQueue) pop() (searchTask, bool) {
	if q.head == len(q.tasks) {
		return searchTask{}, false
	}
	t := q.tasks[q.head]
	q.tasks[q.head] = searchTask{}
	q.head++
	if q.head > 1024 && q.head*2 > len(q.tasks) {
		q.tasks = append([]searchTask(nil), q.tasks[q.head:]...)
		q.head = 0
	}
	return t, true
}

// FindCornersRays runs the ray-following breadth search.
//
// Seeds default to a grid with GridSize spacing starting at GridSize/2; pass
// explicit seeds to search from chosen points instead. The search ends when
// the queue is empty, which the (mode, position) visited set guarantees.
func (s *Session) FindCornersRays(seeds ...image.Point) []Corner {
	cfg := s.det.cfg
	q := &rayQueue{visited: make(map[visitKey]struct{})}

	if len(seeds) == 0 {
		seeds = s.gridSeeds()
	}
	for _, p := range seeds {
		q.push(searchTask{mode: modeSeed, pos: p})
	}

	dequeues := 0
	for {
		t, ok := q.pop()
		if !ok {
			break
		}
		dequeues++
		s.step(t, q)
	}

	s.stats.Dequeues += dequeues
	if q.peak > s.stats.PeakQueue {
		s.stats.PeakQueue = q.peak
	}
	s.det.log.Debug("ray search finished",
		zap.Int("seeds", len(seeds)),
		zap.Int("dequeues", dequeues),
		zap.Int("peak_queue", q.peak),
		zap.Int("corners", s.corners.Len()),
		zap.Int64("evaluations", s.field.Evaluations()))

	return s.corners.Top(cfg.Search.TopN)
}

func (s *Session) gridSeeds() []image.Point {
	g := s.det.cfg.GridSize
	b := s.field.Bounds()
	var seeds []image.Point
	for y := g / 2; y < b.Max.Y; y += g {
		for x := g / 2; x < b.Max.X; x += g {
			seeds = append(seeds, image.Pt(x, y))
		}
	}
	return seeds
}

// step processes one task and enqueues its successors.
func (s *Session) step(t searchTask, q *rayQueue) {
	if t.mode == modeSeed {
		info, _ := s.field.Detail(t.pos)
		if info.Strength > s.det.cfg.MinGrid {
			q.push(searchTask{mode: modeLongRay, pos: t.pos, info: info})
		}
		return
	}

	angles, dists := s.probePlan(t)
	sig, best, info := s.searchRays(t.pos, angles, dists, t.info)

	switch {
	case t.mode == modeBruteForce && sig == signalPeak:
		s.corners.Append(Corner{Strength: info.Strength, Position: best, Detail: info})
		// Halved so the sweep still follows slightly weaker neighbours.
		q.push(searchTask{mode: modeSweep, pos: best, info: info.withStrength(info.Strength * 0.5)})
	case t.mode == modeSweep:
		if sig != signalPeak {
			q.push(searchTask{mode: modeLongRay, pos: best, info: info})
		}
	default:
		q.push(searchTask{mode: t.mode.advance(sig), pos: best, info: info})
	}
}

// probePlan returns the directions and distances probed by a task.
func (s *Session) probePlan(t searchTask) ([]float64, []float64) {
	angles := compassAngles
	if t.info != nil && len(t.info.Angles) > 0 {
		angles = t.info.Angles
	}
	length := float64(s.det.cfg.BeamLength)

	switch t.mode {
	case modeLongRay:
		return angles, scaled(longRayFactors, length)
	case modeShortRay:
		return angles, shortRayDists
	case modeBruteForce:
		return compassAngles, bruteForceDists
	case modeSweep:
		return angles, scaled(sweepFactors, length)
	}
	return nil, nil
}

func scaled(factors []float64, by float64) []float64 {
	out := make([]float64, len(factors))
	for i, f := range factors {
		out[i] = f * by
	}
	return out
}

// searchRays probes every angle x distance offset from point and returns the
// outcome class, the best point and its evaluation. The point itself competes
// with its carried strength.
func (s *Session) searchRays(point image.Point, angles, dists []float64, current *Score) (raySignal, image.Point, *Score) {
	if current == nil {
		current, _ = s.field.Detail(point)
	}
	bestV, bestP, bestI, bestInfo := current.Strength, point, -1, current

	for _, a := range angles {
		sin, cos := math.Sincos(a)
		for i, d := range dists {
			p := point.Add(image.Pt(int(math.RoundToEven(d*cos)), int(math.RoundToEven(d*sin))))
			if p == point || !s.field.InBounds(p) {
				continue
			}
			info, _ := s.field.Detail(p)
			if info.Strength > bestV {
				bestV, bestP, bestI, bestInfo = info.Strength, p, i, info
			}
		}
	}

	switch {
	case bestI == -1:
		return signalPeak, bestP, bestInfo
	case bestI == 0 || bestI == len(angles)-1:
		return signalWeak, bestP, bestInfo
	}
	return signalStrong, bestP, bestInfo
}
