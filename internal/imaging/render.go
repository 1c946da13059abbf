package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RenderResult contains a rendered PNG image.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Marker is a corner position to draw, with the edge directions (radians,
// 0 = +X, increasing toward +Y) it was detected along.
type Marker struct {
	X      int
	Y      int
	Angles []float64
}

var (
	heatLow  = colorful.Color{R: 0.05, G: 0.05, B: 0.25}
	heatHigh = colorful.Color{R: 1.0, G: 0.9, B: 0.2}
)

// RenderCorners draws markers over a copy of img.
//
// Each marker gets a ring, a cross, a rank label (1 = first marker) and a tick
// of rayLength pixels along each of its angles. Colours come from an evenly
// spread palette so neighbouring ranks are distinguishable.
func RenderCorners(img image.Image, markers []Marker, rayLength int) (*RenderResult, error) {
	canvas := imaging.Clone(img)
	offset := img.Bounds().Min

	palette := colorful.FastHappyPalette(len(markers))
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}

	for i, m := range markers {
		c := palette[i].Clamped()
		x, y := m.X-offset.X, m.Y-offset.Y

		for _, a := range m.Angles {
			drawRay(canvas, x, y, a, rayLength, c)
		}
		drawRing(canvas, x, y, 4, c)
		for d := -2; d <= 2; d++ {
			setClipped(canvas, x+d, y, c)
			setClipped(canvas, x, y+d, c)
		}
		drawLabel(canvas, x+6, y+6, strconv.Itoa(i+1), fg, bg)
	}

	return encodeResult(canvas)
}

// RenderScoreMap renders a score field as an image, normalized to its maximum.
//
// With heat set the field is coloured from dark blue (0) to yellow (max);
// otherwise it is written as grayscale.
func RenderScoreMap(scores [][]float64, heat bool) (*RenderResult, error) {
	if len(scores) == 0 || len(scores[0]) == 0 {
		return nil, fmt.Errorf("score map is empty")
	}
	height, width := len(scores), len(scores[0])

	peak := 0.0
	for _, row := range scores {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}
	if peak == 0 {
		peak = 1
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y, row := range scores {
		for x, v := range row {
			canvas.Set(x, y, heatLow.BlendHcl(heatHigh, v/peak).Clamped())
		}
	}

	if !heat {
		return encodeResult(imaging.Grayscale(canvas))
	}
	return encodeResult(canvas)
}

func encodeResult(img *image.NRGBA) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func setClipped(img *image.NRGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func drawRing(img *image.NRGBA, cx, cy, radius int, c color.Color) {
	steps := 8 * radius
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(float64(radius)*math.Cos(a)))
		y := cy + int(math.Round(float64(radius)*math.Sin(a)))
		setClipped(img, x, y, c)
	}
}

func drawRay(img *image.NRGBA, cx, cy int, angle float64, length int, c color.Color) {
	dx, dy := math.Cos(angle), math.Sin(angle)
	for t := 0; t <= length; t++ {
		x := cx + int(math.Round(float64(t)*dx))
		y := cy + int(math.Round(float64(t)*dy))
		setClipped(img, x, y, c)
	}
}

// drawLabel draws digits with a 3x5 pixel font on a filled background box.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	const charWidth = 4
	labelWidth := len(text) * charWidth
	for dy := -1; dy < 6; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
