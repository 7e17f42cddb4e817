package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Slide is one on-screen text beat within a scenario. The emotion tag is
// consumed by narration generation only; the compositor ignores it.
type Slide struct {
	Text    string `yaml:"text"`
	Emotion string `yaml:"emotion,omitempty"`
	// Emoji optionally names the sticker characters for this slide; when
	// empty, emoji embedded in the text are used instead.
	Emoji           string `yaml:"emoji,omitempty"`
	DurationSeconds int    `yaml:"duration_seconds"`
}

// Scenario is one short-video script: a topic, ordered slides, and fuzzy
// references into the music and video libraries. Slide order is the narrative
// order and is significant.
type Scenario struct {
	Topic    string  `yaml:"topic"`
	Slides   []Slide `yaml:"slides"`
	Music    string  `yaml:"music"`
	Video    string  `yaml:"video"`
	HasVideo bool    `yaml:"has_video"`
}

// Validate checks the structural invariants of a scenario document.
func (s *Scenario) Validate() error {
	if len(s.Slides) == 0 {
		return fmt.Errorf("scenario %q has no slides", s.Topic)
	}
	for i, slide := range s.Slides {
		if slide.DurationSeconds <= 0 {
			return fmt.Errorf("scenario %q slide %d: duration_seconds must be > 0, got %d",
				s.Topic, i+1, slide.DurationSeconds)
		}
	}
	return nil
}

// Read loads a scenario document from a YAML file.
func Read(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// Write persists a scenario document to a YAML file.
func Write(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
