package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// CleanOptions selects which generated artifacts to remove.
type CleanOptions struct {
	Videos bool
	Voice  bool
	Images bool
	All    bool
}

// Clean removes generated project artifacts and, when videos are cleared,
// resets the processed flag on every scenario so they render again.
func (p *Pipeline) Clean(opts CleanOptions) error {
	if opts.All {
		opts.Videos, opts.Voice, opts.Images = true, true, true
	}
	if !opts.Videos && !opts.Voice && !opts.Images {
		return fmt.Errorf("nothing selected to clean")
	}

	if opts.Videos {
		if err := p.clearDir(p.cfg.OutputDir()); err != nil {
			return err
		}
		reset, err := p.store.ResetProcessed()
		if err != nil {
			return err
		}
		p.logger.Info().Int("scenarios", reset).Msg("processed flags reset")
	}
	if opts.Voice {
		if err := p.clearDir(p.cfg.VoiceLinesDir()); err != nil {
			return err
		}
	}
	if opts.Images {
		if err := p.clearDir(p.cfg.ImagesDir()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clean %s: %w", dir, err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
		removed++
	}
	p.logger.Info().Str("dir", dir).Int("removed", removed).Msg("cleaned")
	return nil
}
