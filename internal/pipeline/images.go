package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/reelsmith/reelsmith/internal/imagegen"
	"github.com/reelsmith/reelsmith/internal/scenario"
	"github.com/reelsmith/reelsmith/pkg/util"
)

// ImageOptions selects which slide backgrounds to generate.
type ImageOptions struct {
	Force    bool
	Scenario string
}

// GenerateImages renders a background image per slide through the
// configured ComfyUI server, skipping slides that already have one.
func (p *Pipeline) GenerateImages(ctx context.Context, opts ImageOptions) (*Summary, error) {
	if p.cfg.Images.ComfyAddress == "" {
		return nil, fmt.Errorf("images.comfy_server_address is not configured")
	}
	client := imagegen.NewClient(p.cfg.Images, p.logger)

	if err := util.EnsureDir(p.cfg.ImagesDir()); err != nil {
		return nil, err
	}
	paths, err := p.selectScenarios(RenderOptions{Force: true, Scenario: opts.Scenario})
	if err != nil {
		return nil, err
	}

	frameW, frameH := p.cfg.Resolution()
	summary := &Summary{}
	for _, path := range paths {
		if ctx.Err() != nil {
			p.logger.Warn().Msg("image generation interrupted")
			break
		}

		id := scenario.ID(path)
		summary.Attempted++
		if err := p.imageScenario(ctx, path, client, frameW, frameH, opts.Force); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ScenarioID: id, Err: err})
			p.logger.Error().Err(err).Str("scenario", id).Msg("image generation failed")
			continue
		}
		summary.Succeeded++
	}

	p.logger.Info().
		Int("attempted", summary.Attempted).
		Int("failed", summary.Failed).
		Msg("image generation finished")
	return summary, nil
}

func (p *Pipeline) imageScenario(ctx context.Context, path string, client *imagegen.Client, frameW, frameH int, force bool) error {
	sc, err := scenario.Read(path)
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	id := scenario.ID(path)

	for i, slide := range sc.Slides {
		out := filepath.Join(p.cfg.ImagesDir(), scenario.ImageFile(id, i+1))
		if util.FileExists(out) && !force {
			continue
		}

		prompt := slide.Text
		if sc.Topic != "" {
			prompt = sc.Topic + ", " + prompt
		}
		err := client.Generate(ctx, imagegen.Request{
			Prompt:     prompt,
			Width:      frameW,
			Height:     frameH,
			Seed:       seedFor(id, int64(i+1)),
			OutputPath: out,
		})
		if err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		p.logger.Info().Str("scenario", id).Int("slide", i+1).Msg("image generated")
	}
	return nil
}
