package corners

import (
	"image"
	"math/rand"
)

// BasinGrid maps each pixel to the id of the optimizer run that explored it.
// 0 means unclaimed. Claims are permanent.
type BasinGrid struct {
	width, height int
	edge          int
	ids           []int

	// free lists unclaimed pixel indices; slot[i] is i's position in free.
	free []int
	slot []int

	interiorFree int
	lastID       int
}

// NewBasinGrid creates an unclaimed grid. Pixels closer than edgeOffset to the
// border do not count toward interior coverage.
func NewBasinGrid(width, height, edgeOffset int) *BasinGrid {
	n := width * height
	g := &BasinGrid{
		width:  width,
		height: height,
		edge:   edgeOffset,
		ids:    make([]int, n),
		free:   make([]int, n),
		slot:   make([]int, n),
	}
	for i := 0; i < n; i++ {
		g.free[i] = i
		g.slot[i] = i
		if g.interior(i%width, i/width) {
			g.interiorFree++
		}
	}
	return g
}

func (g *BasinGrid) interior(x, y int) bool {
	return x >= g.edge && x < g.width-g.edge && y >= g.edge && y < g.height-g.edge
}

// Bounds returns the grid extent.
func (g *BasinGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.width, g.height)
}

// NewBasinID reserves a fresh nonzero basin id.
func (g *BasinGrid) NewBasinID() int {
	g.lastID++
	return g.lastID
}

// At returns the basin id at p, or 0 outside the grid.
func (g *BasinGrid) At(p image.Point) int {
	if !p.In(g.Bounds()) {
		return 0
	}
	return g.ids[p.Y*g.width+p.X]
}

// Claim paints p with id if p is in bounds and unclaimed.
func (g *BasinGrid) Claim(p image.Point, id int) bool {
	if id == 0 || !p.In(g.Bounds()) {
		return false
	}
	i := p.Y*g.width + p.X
	if g.ids[i] != 0 {
		return false
	}
	g.ids[i] = id

	last := g.free[len(g.free)-1]
	g.free[g.slot[i]] = last
	g.slot[last] = g.slot[i]
	g.free = g.free[:len(g.free)-1]
	g.slot[i] = -1

	if g.interior(p.X, p.Y) {
		g.interiorFree--
	}
	return true
}

// Unclaimed returns the number of unclaimed pixels.
func (g *BasinGrid) Unclaimed() int {
	return len(g.free)
}

// InteriorUnclaimed returns the number of unclaimed pixels inside the edge offset.
func (g *BasinGrid) InteriorUnclaimed() int {
	return g.interiorFree
}

// Coverage returns the claimed fraction of all pixels.
func (g *BasinGrid) Coverage() float64 {
	n := len(g.ids)
	if n == 0 {
		return 1
	}
	return float64(n-len(g.free)) / float64(n)
}

// RandomUnclaimed picks an unclaimed pixel uniformly at random.
func (g *BasinGrid) RandomUnclaimed(rng *rand.Rand) (image.Point, bool) {
	if len(g.free) == 0 {
		return image.Point{}, false
	}
	i := g.free[rng.Intn(len(g.free))]
	return image.Pt(i%g.width, i/g.width), true
}

// Snapshot copies the grid as rows of basin ids.
func (g *BasinGrid) Snapshot() [][]int {
	out := make([][]int, g.height)
	for y := range out {
		out[y] = append([]int(nil), g.ids[y*g.width:(y+1)*g.width]...)
	}
	return out
}
