package corners

import (
	"image"
	"sort"
)

// Corner is one detected corner. Detail holds the sectional breakdown when
// the detector runs in sectional mode.
type Corner struct {
	Strength float64
	Position image.Point
	Detail   *Score
}

// CornerList is the append-only result collection of one search pass.
type CornerList struct {
	items []Corner
	seen  map[image.Point]struct{}
}

func newCornerList() *CornerList {
	return &CornerList{seen: make(map[image.Point]struct{})}
}

// Append adds c unconditionally.
func (l *CornerList) Append(c Corner) {
	l.items = append(l.items, c)
	l.seen[c.Position] = struct{}{}
}

// AppendUnique adds c unless a corner at the same position exists.
func (l *CornerList) AppendUnique(c Corner) bool {
	if l.Contains(c.Position) {
		return false
	}
	l.Append(c)
	return true
}

// Contains reports whether a corner at p was recorded.
func (l *CornerList) Contains(p image.Point) bool {
	_, ok := l.seen[p]
	return ok
}

// Len returns the number of recorded corners.
func (l *CornerList) Len() int {
	return len(l.items)
}

// All returns the corners in insertion order.
func (l *CornerList) All() []Corner {
	return append([]Corner(nil), l.items...)
}

// Top returns at most n corners, strongest first. Equal strengths keep
// insertion order.
func (l *CornerList) Top(n int) []Corner {
	out := l.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
