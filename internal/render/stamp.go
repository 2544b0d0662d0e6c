package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

const stampSize = 200

var stampInk = color.NRGBA{R: 30, G: 60, B: 170, A: 200}

// DefaultStamp draws the built-in company mark: two concentric rings with a
// five-pointed star, as a transparent PNG.
func DefaultStamp() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, stampSize, stampSize))
	c := float64(stampSize) / 2
	star := starPolygon(c, c, 45, 18)

	for y := 0; y < stampSize; y++ {
		for x := 0; x < stampSize; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			d := math.Hypot(px-c, py-c)
			onOuter := d >= 88 && d <= 97
			onInner := d >= 66 && d <= 70
			if onOuter || onInner || insidePolygon(px, py, star) {
				img.SetNRGBA(x, y, stampInk)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding stamp: %w", err)
	}
	return buf.Bytes(), nil
}

type point struct{ x, y float64 }

func starPolygon(cx, cy, outer, inner float64) []point {
	pts := make([]point, 0, 10)
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		pts = append(pts, point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

// insidePolygon is the even-odd ray casting test.
func insidePolygon(x, y float64, poly []point) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.y > y) != (b.y > y) && x < (b.x-a.x)*(y-a.y)/(b.y-a.y)+a.x {
			in = !in
		}
	}
	return in
}
