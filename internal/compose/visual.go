package compose

import (
	"fmt"

	"github.com/reelsmith/reelsmith/internal/ffmpeg"
)

// overlayAsset is one PNG the visual track composites over the base video
// for a time window. Full-frame assets (generated slide backgrounds) are
// scaled to the frame; positioned assets (text, emoji) keep their size.
type overlayAsset struct {
	path       string
	x, y       int
	start, end float64
	fullFrame  bool
}

// buildBaseChain cover-fits the background video input into the output
// frame and normalizes its timing.
func buildBaseChain(g *ffmpeg.Graph, srcW, srcH, frameW, frameH, fps int) {
	scaleW, scaleH, cropX, cropY := CoverFit(srcW, srcH, frameW, frameH)
	fb := ffmpeg.NewFilterBuilder().
		Scale(scaleW, scaleH).
		Crop(frameW, frameH, cropX, cropY).
		Custom("setsar=1").
		FPS(fps)
	g.Chain("[0:v]", fb, "[base]")
}

// buildOverlayChains layers each asset over the running video label in
// order, gating every overlay to its timeline window. Returns the final
// video label.
func buildOverlayChains(g *ffmpeg.Graph, assets []overlayAsset, firstInput, frameW, frameH int) string {
	current := "[base]"
	for i, asset := range assets {
		input := fmt.Sprintf("[%d:v]", firstInput+i)
		if asset.fullFrame {
			scaled := fmt.Sprintf("[img%d]", i)
			g.Chain(input, ffmpeg.NewFilterBuilder().Scale(frameW, frameH), scaled)
			input = scaled
		}
		next := fmt.Sprintf("[v%d]", i+1)
		g.Raw(fmt.Sprintf("%s%soverlay=%d:%d:enable='between(t,%.3f,%.3f)'%s",
			current, input, asset.x, asset.y, asset.start, asset.end, next))
		current = next
	}
	return current
}
