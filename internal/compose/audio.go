package compose

import (
	"fmt"
	"strings"

	"github.com/reelsmith/reelsmith/internal/ffmpeg"
	"github.com/reelsmith/reelsmith/internal/timeline"
	"github.com/reelsmith/reelsmith/pkg/util"
)

// audioFormat normalizes every track before mixing so amix never fights
// mismatched sample rates or layouts.
const audioFormat = "aresample=async=1:first_pts=0,aformat=sample_rates=44100:channel_layouts=stereo"

// audioOptions carries the mixing knobs.
type audioOptions struct {
	MusicVolume   float64
	VoiceVolume   float64
	NarrationTrim float64 // seconds clipped off each narration tail
}

// buildAudioChains mixes the music bed with every narration clip placed at
// its slide's start time. musicInput is the ffmpeg input index of the music
// bed (or the silent source standing in for it); narrInput is the index of
// the first narration input. Produces the [aout] label.
func buildAudioChains(g *ffmpeg.Graph, entries []timeline.Entry, musicInput, narrInput int, hasMusic bool, opts audioOptions) {
	bed := ffmpeg.NewFilterBuilder()
	if hasMusic {
		bed.Volume(opts.MusicVolume)
	}
	bed.Custom(audioFormat)

	var narrated []timeline.Entry
	for _, e := range entries {
		if e.NarrationPath != "" {
			narrated = append(narrated, e)
		}
	}

	if len(narrated) == 0 {
		g.Chain(fmt.Sprintf("[%d:a]", musicInput), bed, "[aout]")
		return
	}

	g.Chain(fmt.Sprintf("[%d:a]", musicInput), bed, "[bgm]")

	labels := make([]string, 0, len(narrated)+1)
	labels = append(labels, "[bgm]")
	for i, e := range narrated {
		// Clip the narration tail to drop encoder click artifacts, then
		// shift it to the slide's start on the timeline.
		keep := e.NarrationDur - opts.NarrationTrim
		fb := ffmpeg.NewFilterBuilder().
			ATrim(keep).
			ADelay(util.Milliseconds(e.Start)).
			Volume(opts.VoiceVolume).
			Custom(audioFormat)
		label := fmt.Sprintf("[nr%d]", i+1)
		g.Chain(fmt.Sprintf("[%d:a]", narrInput+i), fb, label)
		labels = append(labels, label)
	}

	g.Raw(fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=0,aresample=async=1[aout]",
		strings.Join(labels, ""), len(labels)))
}
