package corners

import (
	"image"
	"image/color"
	"testing"
)

const (
	darkLevel   = 80
	brightLevel = 220
)

// createQuadrantImage creates a dark image whose region x >= cx, y >= cy is
// bright. Edge padding continues both edges past the border, so the only
// corner is the one at (cx, cy).
func createQuadrantImage(width, height, cx, cy int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(darkLevel)
			if x >= cx && y >= cy {
				v = brightLevel
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

// createCornerArmsImage draws two one-pixel bright arms of the given length
// from (cx, cy) along +x and +y on a dark background.
func createCornerArmsImage(width, height, cx, cy, length int) *image.Gray {
	img := createFlatImage(width, height, darkLevel)
	for i := 0; i < length; i++ {
		img.SetGray(cx+i, cy, color.Gray{Y: brightLevel})
		img.SetGray(cx, cy+i, color.Gray{Y: brightLevel})
	}
	return img
}

func createFlatImage(width, height int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// quadrantConfig is a small sectional configuration suited to 60x60 test
// images.
func quadrantConfig() Config {
	cfg := DefaultConfig()
	cfg.AngleCount = 12
	cfg.BeamLength = 10
	cfg.BeamWidth = 2
	cfg.ForkSpread = 2
	cfg.EvalMethod = EvalConfig{
		Sectional:        true,
		EliminationWidth: 1,
		MaxN:             2,
		ElimDoubleEnds:   true,
	}
	cfg.GridSize = 10
	cfg.MinGrid = 0.1
	cfg.Search.TopN = 5
	return cfg
}

func mustDetector(t *testing.T, cfg Config, opts ...Option) *Detector {
	t.Helper()
	d, err := NewDetector(cfg, opts...)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return d
}

func mustSession(t *testing.T, d *Detector, img image.Image) *Session {
	t.Helper()
	s, err := d.NewSession(img)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// sameBeams reports whether ids holds exactly the given beams in any order.
func sameBeams(ids []int, want ...int) bool {
	if len(ids) != len(want) {
		return false
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}

// nearArmBeams reports whether ids holds two beams of a 12-beam kernel, one
// within a bin of +x (beam 0) and the other within a bin of +y (beam 3).
func nearArmBeams(ids []int) bool {
	if len(ids) != 2 {
		return false
	}
	nearX := func(id int) bool { return id == 11 || id == 0 || id == 1 }
	nearY := func(id int) bool { return id >= 2 && id <= 4 }
	return (nearX(ids[0]) && nearY(ids[1])) || (nearY(ids[0]) && nearX(ids[1]))
}
