// Package pipeline orchestrates the scenario-to-video batch flow: select
// scenarios, resolve their media, reconcile timelines, and hand each one to
// the renderer, isolating failures so one bad scenario never stops a batch.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelsmith/reelsmith/internal/compose"
	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/ffmpeg"
	"github.com/reelsmith/reelsmith/internal/media"
	"github.com/reelsmith/reelsmith/internal/scenario"
	"github.com/reelsmith/reelsmith/internal/timeline"
	"github.com/reelsmith/reelsmith/pkg/util"
)

// VideoRenderer runs one composition. Satisfied by compose.Renderer;
// narrowed to an interface so batch behavior is testable without ffmpeg.
type VideoRenderer interface {
	Render(ctx context.Context, job compose.Job) error
}

// Pipeline wires the stores, libraries, and renderer for one project.
type Pipeline struct {
	cfg        *config.Config
	exec       *ffmpeg.Executor
	renderer   VideoRenderer
	store      *scenario.Store
	videos     *media.Library
	music      *media.Library
	fonts      *media.FontPool
	emojiFonts *media.FontPool
	logger     zerolog.Logger
}

// New builds a pipeline from configuration. Media libraries are listed once
// up front; an empty music or font library degrades features rather than
// failing construction.
func New(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, err
	}

	videos, err := media.OpenLibrary(cfg.Directories.Videos)
	if err != nil {
		return nil, fmt.Errorf("open video library: %w", err)
	}
	music, err := media.OpenLibrary(cfg.Directories.Music)
	if err != nil {
		logger.Warn().Err(err).Msg("music library unavailable, rendering over silence")
		music = nil
	}
	fonts, err := media.OpenFontPool(cfg.Directories.Fonts)
	if err != nil {
		return nil, fmt.Errorf("open font pool: %w", err)
	}
	emojiFonts, err := media.OpenFontPool(cfg.Directories.EmojiFonts)
	if err != nil {
		return nil, fmt.Errorf("open emoji font pool: %w", err)
	}

	return &Pipeline{
		cfg:        cfg,
		exec:       exec,
		renderer:   compose.NewRenderer(cfg, exec, logger),
		store:      scenario.NewStore(cfg.ScenariosDir(), logger),
		videos:     videos,
		music:      music,
		fonts:      fonts,
		emojiFonts: emojiFonts,
		logger:     logger,
	}, nil
}

// Failure records one scenario that could not be rendered.
type Failure struct {
	ScenarioID string
	Err        error
}

// Summary is the outcome of a batch run.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// RenderOptions selects which scenarios a batch run covers.
type RenderOptions struct {
	Count    int    // render at most N scenarios, 0 means all selected
	Force    bool   // include scenarios already marked processed
	Scenario string // render exactly this scenario (id or path)
	Seed     int64  // 0 derives seeds from scenario ids only
}

// Render runs the batch. A canceled context stops before the next scenario;
// the scenario already rendering is allowed to finish so no truncated file
// is left behind.
func (p *Pipeline) Render(ctx context.Context, opts RenderOptions) (*Summary, error) {
	paths, err := p.selectScenarios(opts)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		p.logger.Info().Msg("nothing to render")
		return &Summary{}, nil
	}

	summary := &Summary{}
	start := time.Now()
	for _, path := range paths {
		if ctx.Err() != nil {
			p.logger.Warn().Int("remaining", len(paths)-summary.Attempted).Msg("batch interrupted")
			break
		}

		id := scenario.ID(path)
		summary.Attempted++
		if err := p.renderOne(ctx, path, opts); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ScenarioID: id, Err: err})
			p.logger.Error().Err(err).Str("scenario", id).Msg("scenario failed")
			continue
		}
		summary.Succeeded++
	}

	p.logger.Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Str("elapsed", util.FormatSeconds(time.Since(start).Seconds())).
		Msg("batch finished")

	if summary.Attempted > 0 && summary.Succeeded == 0 {
		p.logger.Error().Int("attempted", summary.Attempted).Msg("no videos generated")
	}
	return summary, nil
}

func (p *Pipeline) renderOne(ctx context.Context, path string, opts RenderOptions) error {
	sc, err := scenario.Read(path)
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	id := scenario.ID(path)

	videoPath, err := p.videos.Resolve(sc.Video)
	if err != nil {
		return fmt.Errorf("resolve background video: %w", err)
	}

	musicPath := ""
	if p.music != nil {
		musicPath, err = p.music.Resolve(sc.Music)
		if err != nil {
			p.logger.Warn().Err(err).Str("scenario", id).Msg("no music resolved, rendering over silence")
			musicPath = ""
		}
	}

	entries, total := timeline.Reconcile(sc.Slides,
		p.narrationLookup(ctx, id),
		p.imageLookup(id),
		timeline.Options{
			TrailingBuffer: p.cfg.Video.TrailingBuffer,
			IntroPad:       p.cfg.Video.IntroPad,
			OutroPad:       p.cfg.Video.OutroPad,
		})

	seed := seedFor(id, opts.Seed)
	rng := rand.New(rand.NewSource(seed))

	if err := util.EnsureDir(p.cfg.OutputDir()); err != nil {
		return err
	}
	job := compose.Job{
		ScenarioID:    id,
		VideoPath:     videoPath,
		MusicPath:     musicPath,
		Entries:       entries,
		Total:         total,
		FontPaths:     p.pickFonts(rng, len(entries)),
		EmojiFontPath: p.emojiFonts.PickEmoji(),
		OutputPath:    filepath.Join(p.cfg.OutputDir(), scenario.OutputFile(id)),
		Seed:          seed,
	}

	// Detach from batch cancellation so an interrupt never leaves a
	// truncated output behind.
	if err := p.renderer.Render(context.WithoutCancel(ctx), job); err != nil {
		return err
	}
	return p.store.MarkProcessed(path)
}

// pickFonts draws the text font for each slide: one shared font when
// consistent typography is configured, a fresh pick per slide otherwise.
func (p *Pipeline) pickFonts(rng *rand.Rand, slides int) []string {
	fonts := make([]string, slides)
	if p.cfg.Video.UseConsistentFont {
		font := p.fonts.Pick(rng)
		for i := range fonts {
			fonts[i] = font
		}
		return fonts
	}
	for i := range fonts {
		fonts[i] = p.fonts.Pick(rng)
	}
	return fonts
}

// narrationLookup checks the voice-lines directory for this scenario's
// slide audio and probes its length. Missing or unreadable audio falls back
// to the authored duration.
func (p *Pipeline) narrationLookup(ctx context.Context, scenarioID string) timeline.NarrationLookup {
	dir := p.cfg.VoiceLinesDir()
	return func(slideIndex int) (string, float64, bool) {
		path := filepath.Join(dir, scenario.NarrationFile(scenarioID, slideIndex))
		if !util.FileExists(path) {
			return "", 0, false
		}
		dur, err := p.exec.ProbeDuration(ctx, path)
		if err != nil || dur <= 0 {
			p.logger.Warn().Err(err).Str("file", path).Msg("narration unreadable, using authored duration")
			return "", 0, false
		}
		return path, dur, true
	}
}

func (p *Pipeline) imageLookup(scenarioID string) timeline.ImageLookup {
	dir := p.cfg.ImagesDir()
	return func(slideIndex int) (string, bool) {
		path := filepath.Join(dir, scenario.ImageFile(scenarioID, slideIndex))
		return path, util.FileExists(path)
	}
}

// selectScenarios expands RenderOptions into an ordered list of scenario
// paths.
func (p *Pipeline) selectScenarios(opts RenderOptions) ([]string, error) {
	if opts.Scenario != "" {
		path := opts.Scenario
		if !util.FileExists(path) {
			path = filepath.Join(p.store.Dir(), opts.Scenario+".yaml")
		}
		if !util.FileExists(path) {
			return nil, fmt.Errorf("scenario %q not found", opts.Scenario)
		}
		return []string{path}, nil
	}

	var paths []string
	var err error
	if opts.Force {
		paths, err = p.store.List()
	} else {
		paths, err = p.store.ListUnprocessed()
	}
	if err != nil {
		return nil, err
	}

	if opts.Count > 0 && opts.Count < len(paths) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if opts.Seed != 0 {
			rng = rand.New(rand.NewSource(opts.Seed))
		}
		rng.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
		paths = paths[:opts.Count]
	}
	return paths, nil
}

// seedFor derives a stable per-scenario seed so placement and font choice
// survive re-renders of the same scenario.
func seedFor(scenarioID string, base int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(scenarioID))
	return int64(h.Sum64()) ^ base
}
