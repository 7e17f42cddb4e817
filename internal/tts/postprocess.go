package tts

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/ffmpeg"
)

// Postprocessor cleans up raw narration: trims long silences and normalizes
// loudness so every voice line sits at the same level in the final mix.
type Postprocessor struct {
	cfg    config.PostprocessingConfig
	exec   *ffmpeg.Executor
	logger zerolog.Logger
}

func NewPostprocessor(cfg config.PostprocessingConfig, exec *ffmpeg.Executor, logger zerolog.Logger) *Postprocessor {
	return &Postprocessor{cfg: cfg, exec: exec, logger: logger}
}

// Process rewrites path in place with the enabled cleanup steps applied.
// With everything disabled it is a no-op.
func (p *Postprocessor) Process(ctx context.Context, path string) error {
	fb := ffmpeg.NewFilterBuilder()

	if p.cfg.SilenceTrimming.Enabled {
		trim := fmt.Sprintf(
			"silenceremove=start_periods=1:start_threshold=%gdB:start_silence=%g",
			p.cfg.SilenceTrimming.ThresholdDB, p.cfg.SilenceTrimming.MaxSilenceSec)
		// Reverse, trim again, reverse back to also cap the tail silence.
		fb.Custom(trim).Custom("areverse").Custom(trim).Custom("areverse")
	}
	if p.cfg.Normalization.Enabled {
		fb.Custom(fmt.Sprintf("loudnorm=I=%g:TP=-1.5:LRA=11", p.cfg.Normalization.TargetDB))
	}

	filter := fb.Build()
	if filter == "" {
		return nil
	}

	tmp := path + ".clean.wav"
	err := p.exec.Run(ctx, ffmpeg.RunOptions{
		Args: []string{"-i", path, "-af", filter, tmp},
	})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("postprocess %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("postprocess %s: %w", path, err)
	}
	p.logger.Debug().Str("file", path).Msg("narration cleaned")
	return nil
}
