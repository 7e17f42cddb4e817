package overlay

import (
	"image"
	"math"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Placement is a pixel position for an overlay within the output frame.
type Placement struct {
	X, Y int
}

// CenterText centers a text overlay in the frame, clamping oversized
// overlays to the origin.
func CenterText(frameW, frameH, overlayW, overlayH int) Placement {
	x := (frameW - overlayW) / 2
	y := (frameH - overlayH) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return Placement{X: x, Y: y}
}

// PlaceEmoji picks a pseudo-random spot in the top or bottom third of the
// frame, keeping a margin from the edges. A seeded rng makes placement
// reproducible per scenario.
func PlaceEmoji(rng *rand.Rand, frameW, frameH, overlayW, overlayH int) Placement {
	margin := frameW / 20
	xSpan := frameW - 2*margin - overlayW
	x := margin
	if xSpan > 0 {
		x += rng.Intn(xSpan)
	}

	var yMin, yMax int
	if rng.Intn(2) == 0 {
		yMin = frameH / 12
		yMax = frameH/3 - overlayH
	} else {
		yMin = 2 * frameH / 3
		yMax = frameH - frameH/12 - overlayH
	}
	y := yMin
	if yMax > yMin {
		y += rng.Intn(yMax - yMin)
	}
	return Placement{X: x, Y: y}
}

// RandomTilt returns a rotation in degrees within [-max, max].
func RandomTilt(rng *rand.Rand, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * max
}

// Rotate returns a copy of img rotated by deg degrees around its center,
// sized to fit the rotated bounds.
func Rotate(img image.Image, deg float64) *image.RGBA {
	if deg == 0 {
		b := img.Bounds()
		out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Copy(out, image.Point{}, img, b, draw.Over, nil)
		return out
	}

	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	outW := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin)))
	outH := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos)))
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))

	// Rotate around the source center, then recenter in the larger canvas.
	cx, cy := w/2, h/2
	ocx, ocy := float64(outW)/2, float64(outH)/2
	m := f64.Aff3{
		cos, -sin, ocx - cos*cx + sin*cy,
		sin, cos, ocy - sin*cx - cos*cy,
	}
	draw.CatmullRom.Transform(out, m, img, b, draw.Over, nil)
	return out
}
