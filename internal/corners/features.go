package corners

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FeatureWidth returns the number of features produced per image: for each
// of the top_n corners its strength, x, y, then max_n angles and max_n beam
// strengths in sectional mode.
func (d *Detector) FeatureWidth() int {
	return d.cfg.Search.TopN * d.featuresPerCorner()
}

func (d *Detector) featuresPerCorner() int {
	if m, ok := d.method.(Sectional); ok {
		return 3 + 2*m.MaxN
	}
	return 3
}

// ExtractFeatures turns each image into a fixed-width corner feature vector
// using the ray search, for use as classifier input.
//
// Images with fewer than top_n corners leave trailing slots missing; missing
// values are filled with the mean of the same column over the batch, or 0
// when no image has a value there.
func (d *Detector) ExtractFeatures(images []image.Image) ([][]float64, error) {
	return d.extractFeatures(images, false)
}

// ExtractFeaturesWithPixels is ExtractFeatures with each row prefixed by the
// image's gray intensities in row-major order. All images must have the same
// size.
func (d *Detector) ExtractFeaturesWithPixels(images []image.Image) ([][]float64, error) {
	return d.extractFeatures(images, true)
}

func (d *Detector) extractFeatures(images []image.Image, withPixels bool) ([][]float64, error) {
	per := d.featuresPerCorner()
	rows := make([][]float64, len(images))
	var size image.Point

	for i, img := range images {
		sess, err := d.NewSession(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}

		var pixels []float64
		if withPixels {
			b := sess.field.Bounds()
			if i == 0 {
				size = b.Size()
			} else if b.Size() != size {
				return nil, fmt.Errorf("image %d: size %v differs from %v", i, b.Size(), size)
			}
			pixels = sess.field.gray.Values()
		}

		row := make([]float64, len(pixels)+d.FeatureWidth())
		copy(row, pixels)
		corners := row[len(pixels):]
		for j := range corners {
			corners[j] = math.NaN()
		}
		for k, c := range sess.FindCornersRays() {
			f := corners[k*per : (k+1)*per]
			f[0], f[1], f[2] = c.Strength, float64(c.Position.X), float64(c.Position.Y)
			if c.Detail != nil && per > 3 {
				copy(f[3:], c.Detail.Angles)
				copy(f[3+(per-3)/2:], c.Detail.Strengths)
			}
		}
		rows[i] = row
	}

	imputeColumnMeans(rows)
	return rows, nil
}

// imputeColumnMeans replaces NaN entries with their column's mean over the
// non-NaN entries, or 0 for all-NaN columns.
func imputeColumnMeans(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	col := make([]float64, 0, len(rows))
	for j := range rows[0] {
		col = col[:0]
		for _, r := range rows {
			if !math.IsNaN(r[j]) {
				col = append(col, r[j])
			}
		}
		fill := 0.0
		if len(col) > 0 {
			fill = stat.Mean(col, nil)
		}
		for _, r := range rows {
			if math.IsNaN(r[j]) {
				r[j] = fill
			}
		}
	}
}
