package corners

import "gonum.org/v1/gonum/floats"

// ExtractMax returns the index and value of the largest entry of vals, then
// zeroes the cyclic band of 2*width+1 entries centered on it. With doubleEnds
// the same band shifted by len(vals)/2 is zeroed too, so one physical edge is
// not reported again at the opposite orientation.
//
// vals is modified in place; repeated calls yield successive peaks.
func ExtractMax(vals []float64, width int, doubleEnds bool) (int, float64) {
	n := len(vals)
	idx := floats.MaxIdx(vals)
	val := vals[idx]

	for off := -width; off <= width; off++ {
		i := mod(idx+off, n)
		vals[i] = 0
		if doubleEnds {
			vals[mod(i+n/2, n)] = 0
		}
	}
	return idx, val
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
