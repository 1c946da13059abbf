package corners

import (
	"image"
	"math/rand"

	"go.uber.org/zap"
)

// FindCornersBasin runs the basin-guided descent search.
//
// While any pixel inside the edge offset is unclaimed, a uniformly random
// unclaimed pixel seeds a local optimization of the negated score. Runs that
// report ExitMaximumFound add their peak unless a corner already sits at that
// position or its strength does not exceed MinCornerScore; other runs are
// dropped, but the pixels they painted stay claimed. The loop also stops
// after MaxRounds runs or once more than StopPercent of all pixels are
// claimed, when those limits are set.
//
// The random sequence is seeded from Search.Seed, so a fresh session on the
// same image reproduces the same corners.
func (s *Session) FindCornersBasin() []Corner {
	cfg := s.det.cfg
	rng := rand.New(rand.NewSource(cfg.Search.Seed))
	bounds := s.field.Bounds()
	negative := func(p image.Point) float64 { return -s.field.Score(p) }

	rounds := 0
	for s.basins.InteriorUnclaimed() > 0 {
		if cfg.Search.MaxRounds > 0 && rounds >= cfg.Search.MaxRounds {
			break
		}
		start, ok := s.basins.RandomUnclaimed(rng)
		if !ok {
			break
		}

		s.findCorner(start, negative, bounds, cfg.MinCornerScore)
		rounds++

		if cfg.Search.StopPercent > 0 && s.basins.Coverage() > cfg.Search.StopPercent {
			break
		}
	}
	s.stats.Rounds += rounds

	s.det.log.Debug("basin search finished",
		zap.Int("rounds", rounds),
		zap.Float64("coverage", s.basins.Coverage()),
		zap.Int("corners", s.corners.Len()),
		zap.Int64("evaluations", s.field.Evaluations()))

	return s.corners.Top(cfg.Search.TopN)
}

func (s *Session) findCorner(start image.Point, negative Objective, bounds image.Rectangle, minScore float64) {
	res := s.det.optimizer.Minimize(negative, start, bounds, s.basins)

	// A run always explains at least its own start pixel.
	if s.basins.At(start) == 0 {
		s.basins.Claim(start, s.basins.NewBasinID())
	}

	if res.ExitCause != ExitMaximumFound {
		s.det.log.Debug("optimizer run dropped",
			zap.Int("x", start.X), zap.Int("y", start.Y),
			zap.String("exit_cause", res.ExitCause))
		return
	}

	strength := -res.Value
	if strength <= minScore {
		return
	}
	detail, _ := s.field.Detail(res.Position)
	s.corners.AppendUnique(Corner{Strength: strength, Position: res.Position, Detail: detail})
}
