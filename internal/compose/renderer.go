// Package compose turns a reconciled timeline plus resolved media into a
// finished video through a single ffmpeg invocation.
package compose

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/ffmpeg"
	"github.com/reelsmith/reelsmith/internal/overlay"
	"github.com/reelsmith/reelsmith/internal/timeline"
	"github.com/reelsmith/reelsmith/pkg/util"
)

// Job is everything needed to render one scenario.
type Job struct {
	ScenarioID string
	VideoPath  string // resolved background video, required
	MusicPath  string // resolved music bed, empty renders over silence
	Entries    []timeline.Entry
	Total      float64 // composition length in seconds

	// FontPaths carries one text font per entry, index-aligned with
	// Entries. Consistent typography repeats the same path; an empty or
	// missing path falls back to a builtin face.
	FontPaths     []string
	EmojiFontPath string
	OutputPath    string
	Seed          int64 // drives placement and tilt, stable per scenario
}

// Renderer assembles and runs the ffmpeg composition for render jobs.
type Renderer struct {
	cfg    *config.Config
	exec   *ffmpeg.Executor
	logger zerolog.Logger
}

func NewRenderer(cfg *config.Config, exec *ffmpeg.Executor, logger zerolog.Logger) *Renderer {
	return &Renderer{cfg: cfg, exec: exec, logger: logger}
}

// Render produces job.OutputPath. Overlay bitmaps are staged in a temp
// directory that is removed afterwards regardless of outcome.
func (r *Renderer) Render(ctx context.Context, job Job) error {
	workDir := filepath.Join(os.TempDir(), "reelsmith-"+uuid.NewString())
	if err := util.EnsureDir(workDir); err != nil {
		return fmt.Errorf("stage overlay dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	rng := rand.New(rand.NewSource(job.Seed))
	frameW, frameH := r.cfg.Resolution()

	info, err := r.exec.Probe(ctx, job.VideoPath)
	if err != nil {
		return fmt.Errorf("probe background video: %w", err)
	}
	if !info.HasVideo {
		return fmt.Errorf("background media %s has no video stream", job.VideoPath)
	}

	assets, err := r.buildOverlayAssets(job, workDir, rng, frameW, frameH)
	if err != nil {
		return err
	}

	var args []string

	// Input 0: background video. Loop it when shorter than the
	// composition, otherwise start at a random offset inside it.
	args = append(args, sourceArgs(job.VideoPath, info.Duration, job.Total, rng)...)

	// Input 1: music bed, or silence when the scenario has none.
	hasMusic := job.MusicPath != ""
	if hasMusic {
		musicDur, err := r.exec.ProbeDuration(ctx, job.MusicPath)
		if err != nil {
			return fmt.Errorf("probe music: %w", err)
		}
		args = append(args, sourceArgs(job.MusicPath, musicDur, job.Total, rng)...)
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}

	firstOverlayInput := 2
	for _, asset := range assets {
		args = append(args, "-loop", "1", "-i", asset.path)
	}

	narrInput := firstOverlayInput + len(assets)
	narrations := 0
	for _, e := range job.Entries {
		if e.NarrationPath != "" {
			args = append(args, "-i", e.NarrationPath)
			narrations++
		}
	}

	graph := ffmpeg.NewGraph()
	buildBaseChain(graph, info.Width, info.Height, frameW, frameH, r.cfg.Video.FPS)
	vout := buildOverlayChains(graph, assets, firstOverlayInput, frameW, frameH)
	buildAudioChains(graph, job.Entries, 1, narrInput, hasMusic, audioOptions{
		MusicVolume:   r.cfg.Video.BackgroundMusicVolume,
		VoiceVolume:   r.cfg.Video.VoiceNarrationVolume,
		NarrationTrim: r.cfg.Video.NarrationTrim,
	})

	args = append(args,
		"-filter_complex", graph.String(),
		"-map", vout,
		"-map", "[aout]",
		"-c:v", "libx264",
		"-preset", r.cfg.Video.Preset,
		"-crf", strconv.Itoa(r.cfg.Video.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		"-t", fmt.Sprintf("%.3f", job.Total),
		job.OutputPath,
	)

	r.logger.Info().
		Str("scenario", job.ScenarioID).
		Int("overlays", len(assets)).
		Int("narrations", narrations).
		Str("length", util.FormatSeconds(job.Total)).
		Msg("rendering")

	err = r.exec.Run(ctx, ffmpeg.RunOptions{
		Args: args,
		ProgressHandler: func(p *ffmpeg.Progress) {
			r.logger.Debug().
				Str("scenario", job.ScenarioID).
				Str("time", p.Time).
				Str("speed", p.Speed).
				Msg("render progress")
		},
	})
	if err != nil {
		os.Remove(job.OutputPath)
		return fmt.Errorf("render %s: %w", job.ScenarioID, err)
	}

	return r.verifyOutput(ctx, job)
}

// sourceArgs builds the -i argument group for a finite media source that
// must span want seconds: loop when too short, seek to a random window when
// longer.
func sourceArgs(path string, have, want float64, rng *rand.Rand) []string {
	var args []string
	if have > 0 && have < want {
		args = append(args, "-stream_loop", "-1")
	} else if have > want {
		offset := rng.Float64() * (have - want)
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset))
	}
	return append(args, "-i", path)
}

// buildOverlayAssets rasterizes per-slide text and emoji stickers and
// collects generated slide backgrounds, each stamped with its timeline
// window.
func (r *Renderer) buildOverlayAssets(job Job, workDir string, rng *rand.Rand, frameW, frameH int) ([]overlayAsset, error) {
	faces := make(map[string]font.Face)
	faceFor := func(path string) font.Face {
		if path == "" {
			return overlay.FallbackFace()
		}
		if f, ok := faces[path]; ok {
			return f
		}
		loaded, err := overlay.LoadFace(path, r.cfg.Video.FontSize)
		if err != nil {
			r.logger.Warn().Err(err).Str("font", path).Msg("font unusable, using builtin face")
			loaded = overlay.FallbackFace()
		}
		faces[path] = loaded
		return loaded
	}

	emojiCfg := r.cfg.Video.Emoji
	var emojiFace = overlay.FallbackFace()
	emojiUsable := false
	if emojiCfg.Enabled && job.EmojiFontPath != "" {
		size := r.cfg.Video.FontSize * 2 * emojiCfg.Scale
		loaded, err := overlay.LoadFace(job.EmojiFontPath, size)
		if err != nil {
			r.logger.Warn().Err(err).Str("font", job.EmojiFontPath).Msg("emoji font unusable, skipping emoji overlays")
		} else {
			emojiFace = loaded
			emojiUsable = true
		}
	}

	var assets []overlayAsset
	for i, entry := range job.Entries {
		fontPath := ""
		if i < len(job.FontPaths) {
			fontPath = job.FontPaths[i]
		}
		style := overlay.DefaultTextStyle(faceFor(fontPath), r.cfg.Video.StrokeWidth, frameW*8/10)

		if entry.ImagePath != "" {
			assets = append(assets, overlayAsset{
				path:      entry.ImagePath,
				start:     entry.Start,
				end:       entry.End(),
				fullFrame: true,
			})
		}

		display := overlay.StripEmojis(entry.Text)
		if display != "" {
			img := overlay.RenderText(display, style)
			path := filepath.Join(workDir, fmt.Sprintf("text_%02d.png", entry.Index))
			if err := overlay.WritePNG(img, path); err != nil {
				return nil, fmt.Errorf("slide %d text overlay: %w", entry.Index, err)
			}
			b := img.Bounds()
			pos := overlay.CenterText(frameW, frameH, b.Dx(), b.Dy())
			assets = append(assets, overlayAsset{
				path:  path,
				x:     pos.X,
				y:     pos.Y,
				start: entry.Start,
				end:   entry.End(),
			})
		}

		glyphs := entry.Emoji
		if glyphs == "" {
			glyphs = overlay.ExtractEmojis(entry.Text)
		}
		if glyphs != "" && emojiUsable {
			img := overlay.Rotate(overlay.RenderGlyphs(glyphs, emojiFace), overlay.RandomTilt(rng, emojiCfg.MaxRotation))
			path := filepath.Join(workDir, fmt.Sprintf("emoji_%02d.png", entry.Index))
			if err := overlay.WritePNG(img, path); err != nil {
				return nil, fmt.Errorf("slide %d emoji overlay: %w", entry.Index, err)
			}
			b := img.Bounds()
			pos := overlay.PlaceEmoji(rng, frameW, frameH, b.Dx(), b.Dy())
			assets = append(assets, overlayAsset{
				path:  path,
				x:     pos.X,
				y:     pos.Y,
				start: entry.Start,
				end:   entry.End(),
			})
		}
	}
	return assets, nil
}

// verifyOutput rejects renders that ffmpeg exited cleanly on but left
// truncated.
func (r *Renderer) verifyOutput(ctx context.Context, job Job) error {
	st, err := os.Stat(job.OutputPath)
	if err != nil {
		return fmt.Errorf("output missing after render: %w", err)
	}
	if st.Size() == 0 {
		os.Remove(job.OutputPath)
		return fmt.Errorf("output %s is empty", job.OutputPath)
	}
	dur, err := r.exec.ProbeDuration(ctx, job.OutputPath)
	if err != nil {
		os.Remove(job.OutputPath)
		return fmt.Errorf("verify output: %w", err)
	}
	r.logger.Info().
		Str("scenario", job.ScenarioID).
		Str("output", job.OutputPath).
		Str("duration", util.FormatSeconds(dur)).
		Msg("render complete")
	return nil
}
