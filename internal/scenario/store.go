package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/reelsmith/reelsmith/pkg/util"
)

// Store manages scenario documents in a directory, one YAML file per
// scenario. The file name (without extension) is the scenario identity that
// narration and image assets are keyed on.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates a store over the given scenarios directory.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "scenarios").Logger(),
	}
}

// Dir returns the scenarios directory.
func (s *Store) Dir() string { return s.dir }

// ID derives the scenario identity from a document path.
func ID(path string) string {
	return util.BaseName(path)
}

// NarrationFile returns the conventional narration file name for a slide.
// Slide indices are 1-based and zero-padded.
func NarrationFile(scenarioID string, slideIndex int) string {
	return fmt.Sprintf("%s_slide_%02d.wav", scenarioID, slideIndex)
}

// ImageFile returns the conventional generated-image file name for a slide.
// Slide indices are 1-based, unpadded.
func ImageFile(scenarioID string, slideIndex int) string {
	return fmt.Sprintf("%s_slide_%d.png", scenarioID, slideIndex)
}

// OutputFile returns the rendered video file name for a scenario.
func OutputFile(scenarioID string) string {
	return scenarioID + ".mp4"
}

// List returns the paths of all scenario documents in stable (sorted) order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list scenarios in %s: %w", s.dir, err)
	}

	paths := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			return "", false
		}
		return filepath.Join(s.dir, e.Name()), true
	})
	sort.Strings(paths)
	return paths, nil
}

// ListUnprocessed returns the paths of all scenarios without a rendered
// video, in stable order. Documents that fail to parse are skipped with a
// warning rather than aborting the listing.
func (s *Store) ListUnprocessed() ([]string, error) {
	paths, err := s.List()
	if err != nil {
		return nil, err
	}

	var unprocessed []string
	for _, path := range paths {
		doc, err := Read(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("scenario", filepath.Base(path)).Msg("skipping unreadable scenario")
			continue
		}
		if !doc.HasVideo {
			unprocessed = append(unprocessed, path)
		}
	}
	return unprocessed, nil
}

// MarkProcessed sets the has_video flag on a scenario document. This is the
// only mutation the render pipeline makes to scenario data.
func (s *Store) MarkProcessed(path string) error {
	doc, err := Read(path)
	if err != nil {
		return err
	}
	doc.HasVideo = true
	if err := Write(path, doc); err != nil {
		return fmt.Errorf("mark scenario processed %s: %w", path, err)
	}
	return nil
}

// ResetProcessed clears the has_video flag on every scenario document, so a
// subsequent batch re-renders everything.
func (s *Store) ResetProcessed() (int, error) {
	paths, err := s.List()
	if err != nil {
		return 0, err
	}
	reset := 0
	for _, path := range paths {
		doc, err := Read(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("scenario", filepath.Base(path)).Msg("skipping unreadable scenario")
			continue
		}
		if !doc.HasVideo {
			continue
		}
		doc.HasVideo = false
		if err := Write(path, doc); err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}
