package overlay

import (
	"image/color"
	"testing"

	"golang.org/x/image/font"
)

func TestRenderTextProducesVisiblePixels(t *testing.T) {
	style := DefaultTextStyle(FallbackFace(), 2, 0)
	img := RenderText("hello world", style)

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Fatalf("empty image %v", b)
	}

	white, black := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch img.At(x, y) {
			case color.RGBA{255, 255, 255, 255}:
				white++
			case color.RGBA{0, 0, 0, 255}:
				black++
			}
		}
	}
	if white == 0 {
		t.Error("no fill pixels rendered")
	}
	if black == 0 {
		t.Error("no stroke pixels rendered")
	}
}

func TestRenderTextMultiline(t *testing.T) {
	face := FallbackFace()
	one := RenderText("tiny", DefaultTextStyle(face, 0, 0))
	two := RenderText("First thing happened. Second thing happened", DefaultTextStyle(face, 0, 0))

	if two.Bounds().Dy() <= one.Bounds().Dy() {
		t.Errorf("two lines (%d px) not taller than one (%d px)",
			two.Bounds().Dy(), one.Bounds().Dy())
	}
}

func TestWrapLineRespectsMaxWidth(t *testing.T) {
	face := FallbackFace()
	line := "several small words that should wrap neatly"
	maxWidth := 100

	wrapped := wrapLine(line, face, maxWidth)
	if len(wrapped) < 2 {
		t.Fatalf("expected wrapping, got %v", wrapped)
	}
	for _, l := range wrapped {
		if w := font.MeasureString(face, l).Ceil(); w > maxWidth {
			t.Errorf("line %q is %d px, over the %d px limit", l, w, maxWidth)
		}
	}
}

func TestRenderGlyphsNonEmpty(t *testing.T) {
	img := RenderGlyphs("abc", FallbackFace())
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		t.Errorf("empty glyph image %v", img.Bounds())
	}
}
