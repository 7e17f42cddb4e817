package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/reelsmith/reelsmith/internal/scenario"
	"github.com/reelsmith/reelsmith/internal/tts"
	"github.com/reelsmith/reelsmith/pkg/util"
)

// VoiceOptions selects which narration files to generate.
type VoiceOptions struct {
	Force    bool   // regenerate narration that already exists
	Scenario string // limit to one scenario (id or path)
}

// GenerateVoice synthesizes narration audio for every slide that does not
// have it yet. Each scenario keeps one voice across all of its slides.
func (p *Pipeline) GenerateVoice(ctx context.Context, opts VoiceOptions) (*Summary, error) {
	provider, err := tts.NewProvider(p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	post := tts.NewPostprocessor(p.cfg.Voice.Postprocessing, p.exec, p.logger)

	if err := util.EnsureDir(p.cfg.VoiceLinesDir()); err != nil {
		return nil, err
	}
	paths, err := p.selectScenarios(RenderOptions{Force: true, Scenario: opts.Scenario})
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, path := range paths {
		if ctx.Err() != nil {
			p.logger.Warn().Msg("voice generation interrupted")
			break
		}

		id := scenario.ID(path)
		summary.Attempted++
		if err := p.voiceScenario(ctx, path, provider, post, opts.Force); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ScenarioID: id, Err: err})
			p.logger.Error().Err(err).Str("scenario", id).Msg("voice generation failed")
			continue
		}
		summary.Succeeded++
	}

	p.logger.Info().
		Str("provider", provider.Name()).
		Int("attempted", summary.Attempted).
		Int("failed", summary.Failed).
		Msg("voice generation finished")
	return summary, nil
}

func (p *Pipeline) voiceScenario(ctx context.Context, path string, provider tts.Provider, post *tts.Postprocessor, force bool) error {
	sc, err := scenario.Read(path)
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	id := scenario.ID(path)

	voices := provider.Voices()
	if len(voices) == 0 {
		return fmt.Errorf("provider %s has no voices configured", provider.Name())
	}
	rng := rand.New(rand.NewSource(seedFor(id, 0)))
	voice := voices[rng.Intn(len(voices))]

	for i, slide := range sc.Slides {
		out := filepath.Join(p.cfg.VoiceLinesDir(), scenario.NarrationFile(id, i+1))
		if util.FileExists(out) && !force {
			continue
		}

		text := tts.PreprocessText(slide.Text)
		if text == "" {
			p.logger.Debug().Str("scenario", id).Int("slide", i+1).Msg("no speakable text, skipping")
			continue
		}

		err := provider.Synthesize(ctx, tts.Request{
			Text:       text,
			Emotion:    slide.Emotion,
			Voice:      voice,
			OutputPath: out,
		})
		if err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		if err := post.Process(ctx, out); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		p.logger.Info().Str("scenario", id).Int("slide", i+1).Msg("narration generated")
	}
	return nil
}
