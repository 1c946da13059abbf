package corners

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// geometryEpsilon absorbs rounding in the axis projections so that
// offsets lying exactly on a prong boundary are classified consistently at
// every angle.
const geometryEpsilon = 1e-9

// Beam is one oriented dual-prong mask in sparse form.
//
// Offsets index the row-major (2r+1)x(2r+1) window centered on the scored
// pixel; Weights holds the matching nonzero kernel values. The positive prong
// sums to 1 and the negative prong to -1.
type Beam struct {
	ID      int
	Angle   float64 // radians, 0 = +X, π/2 = +Y
	Offsets []int
	Weights []float64
}

// KernelSet is the immutable set of beams shared by every score evaluation of
// one configuration.
type KernelSet struct {
	Radius   int
	Diameter int
	Beams    []Beam
}

// BuildKernel builds the beam set for cfg's geometry.
//
// For every beam angle each window offset is projected onto the beam axis
// (len) and its perpendicular (dist). The outer prong weight is
// max(w/2 - |dist - spread/2|, 0) for dist > 0, the inner prong the mirror
// image for dist <= 0; both are clipped to beam_start <= len <= beam_length and
// normalized independently by their own sums. A prong without support is a
// *ConfigurationError.
func BuildKernel(cfg Config) (*KernelSet, error) {
	r := cfg.BeamLength
	d := 2*r + 1
	count := cfg.Beams()
	if r <= 0 || count <= 0 {
		return nil, invalid("beam_length", "kernel needs beam_length > 0 and at least one beam")
	}

	halfWidth := float64(cfg.BeamWidth) / 2
	halfSpread := cfg.ForkSpread / 2
	start, length := float64(cfg.BeamStart), float64(r)

	ks := &KernelSet{Radius: r, Diameter: d, Beams: make([]Beam, count)}
	outer := make([]float64, d*d)
	inner := make([]float64, d*d)
	combined := make([]float64, d*d)

	for k := 0; k < count; k++ {
		angle := 2 * math.Pi * float64(k) / float64(count)
		sin, cos := math.Sincos(angle)

		for wy := 0; wy < d; wy++ {
			dy := float64(wy - r)
			for wx := 0; wx < d; wx++ {
				dx := float64(wx - r)
				i := wy*d + wx
				outer[i], inner[i] = 0, 0

				along := dy*sin + dx*cos
				dist := dy*cos - dx*sin
				if along < start-geometryEpsilon || along > length+geometryEpsilon {
					continue
				}
				if dist > geometryEpsilon {
					if w := halfWidth - math.Abs(dist-halfSpread); w > geometryEpsilon {
						outer[i] = w
					}
				} else if w := -halfWidth + math.Abs(dist+halfSpread); w < -geometryEpsilon {
					inner[i] = w
				}
			}
		}

		outerSum, innerSum := floats.Sum(outer), floats.Sum(inner)
		if outerSum == 0 || innerSum == 0 {
			return nil, invalid("beam_width", "beam %d at %.1f degrees has an empty prong (width %d, spread %v, start %d, length %d)",
				k, angle*180/math.Pi, cfg.BeamWidth, cfg.ForkSpread, cfg.BeamStart, cfg.BeamLength)
		}

		floats.Scale(1/outerSum, outer)
		floats.AddScaledTo(combined, outer, -1/innerSum, inner)

		beam := Beam{ID: k, Angle: angle}
		for i, w := range combined {
			if w != 0 {
				beam.Offsets = append(beam.Offsets, i)
				beam.Weights = append(beam.Weights, w)
			}
		}
		ks.Beams[k] = beam
	}

	return ks, nil
}

// Support returns the dense boolean mask of beam k.
func (ks *KernelSet) Support(k int) []bool {
	mask := make([]bool, ks.Diameter*ks.Diameter)
	for _, off := range ks.Beams[k].Offsets {
		mask[off] = true
	}
	return mask
}
