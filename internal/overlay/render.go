package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LoadFace parses a TTF/OTF file and builds a face at the given pixel size.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face %s: %w", path, err)
	}
	return face, nil
}

// FallbackFace is used when no usable font file exists. Output is ugly but
// the render still completes.
func FallbackFace() font.Face {
	return basicfont.Face7x13
}

// TextStyle controls how text overlays are rasterized.
type TextStyle struct {
	Face        font.Face
	StrokeWidth int
	MaxWidth    int // wrap limit in pixels, 0 disables wrapping
	Fill        color.Color
	Stroke      color.Color
}

// DefaultTextStyle wraps a face in the standard white-on-black look.
func DefaultTextStyle(face font.Face, strokeWidth, maxWidth int) TextStyle {
	return TextStyle{
		Face:        face,
		StrokeWidth: strokeWidth,
		MaxWidth:    maxWidth,
		Fill:        color.White,
		Stroke:      color.Black,
	}
}

// RenderText rasterizes text onto a transparent image. Lines come from
// BreakLines and are further wrapped to MaxWidth, each line centered, with
// a solid stroke behind the fill for legibility on any background.
func RenderText(text string, style TextStyle) *image.RGBA {
	lines := wrapAll(BreakLines(text), style.Face, style.MaxWidth)
	return renderLines(lines, style)
}

// RenderGlyphs rasterizes a single run of characters with no wrapping or
// stroke. Used for emoji stickers.
func RenderGlyphs(glyphs string, face font.Face) *image.RGBA {
	return renderLines([]string{glyphs}, TextStyle{
		Face: face,
		Fill: color.White,
	})
}

func renderLines(lines []string, style TextStyle) *image.RGBA {
	sw := style.StrokeWidth
	metrics := style.Face.Metrics()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	}

	width := 1
	for _, line := range lines {
		if w := font.MeasureString(style.Face, line).Ceil(); w > width {
			width = w
		}
	}
	height := lineHeight * len(lines)

	img := image.NewRGBA(image.Rect(0, 0, width+2*sw, height+2*sw))
	drawer := font.Drawer{Dst: img, Face: style.Face}

	for i, line := range lines {
		lineWidth := font.MeasureString(style.Face, line).Ceil()
		x := sw + (width-lineWidth)/2
		y := sw + metrics.Ascent.Ceil() + i*lineHeight

		if sw > 0 && style.Stroke != nil {
			drawer.Src = image.NewUniform(style.Stroke)
			for dx := -sw; dx <= sw; dx++ {
				for dy := -sw; dy <= sw; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if dx*dx+dy*dy > sw*sw {
						continue
					}
					drawer.Dot = fixed.P(x+dx, y+dy)
					drawer.DrawString(line)
				}
			}
		}

		drawer.Src = image.NewUniform(style.Fill)
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return img
}

// wrapAll applies pixel-width wrapping to each pre-broken line.
func wrapAll(lines []string, face font.Face, maxWidth int) []string {
	if maxWidth <= 0 {
		return lines
	}
	var out []string
	for _, line := range lines {
		out = append(out, wrapLine(line, face, maxWidth)...)
	}
	return out
}

func wrapLine(line string, face font.Face, maxWidth int) []string {
	if font.MeasureString(face, line).Ceil() <= maxWidth {
		return []string{line}
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{line}
	}
	var out []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			out = append(out, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(out, current)
}

// WritePNG saves an overlay bitmap for ffmpeg to consume.
func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
