package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "myproject.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "directories:\n  videos: /lib/videos\n  music: /lib/music\n  output_root: /out\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ProjectName != "myproject" {
		t.Errorf("project name = %q, want file-derived myproject", cfg.ProjectName)
	}
	if cfg.Video.Orientation != "vertical" || cfg.Video.FPS != 30 || cfg.Video.CRF != 23 {
		t.Errorf("video defaults not applied: %+v", cfg.Video)
	}
	if cfg.Video.TrailingBuffer != 0.5 {
		t.Errorf("trailing buffer default = %v", cfg.Video.TrailingBuffer)
	}
	if cfg.Voice.Provider != "zonos" {
		t.Errorf("voice provider default = %q", cfg.Voice.Provider)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
project_name: custom
directories:
  videos: /lib/videos
  music: /lib/music
  output_root: /out
video:
  orientation: horizontal
  quality: 0.5
  fps: 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ProjectName != "custom" {
		t.Errorf("explicit project name ignored, got %q", cfg.ProjectName)
	}
	if cfg.Video.FPS != 60 {
		t.Errorf("fps = %d", cfg.Video.FPS)
	}

	w, h := cfg.Resolution()
	if w != 960 || h != 540 {
		t.Errorf("resolution = %dx%d, want 960x540", w, h)
	}
}

func TestResolutionKeepsDimensionsEven(t *testing.T) {
	cfg := defaultConfig()
	cfg.Video.Quality = 0.7 // 756x1344, already even
	w, h := cfg.Resolution()
	if w%2 != 0 || h%2 != 0 {
		t.Errorf("odd dimensions %dx%d", w, h)
	}

	cfg.Video.Quality = 0.35 // 378x672
	w, h = cfg.Resolution()
	if w%2 != 0 || h%2 != 0 {
		t.Errorf("odd dimensions %dx%d", w, h)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing videos dir", func(c *Config) { c.Directories.Videos = "" }},
		{"missing music dir", func(c *Config) { c.Directories.Music = "" }},
		{"missing output root", func(c *Config) { c.Directories.OutputRoot = "" }},
		{"zero quality", func(c *Config) { c.Video.Quality = 0 }},
		{"quality above one", func(c *Config) { c.Video.Quality = 1.5 }},
		{"bad orientation", func(c *Config) { c.Video.Orientation = "diagonal" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProjectDirs(t *testing.T) {
	cfg := defaultConfig()
	cfg.ProjectName = "demo"
	cfg.Directories.OutputRoot = "/out"

	if got := cfg.ScenariosDir(); got != filepath.Join("/out", "demo", "scenarios") {
		t.Errorf("scenarios dir = %q", got)
	}
	if got := cfg.OutputDir(); got != filepath.Join("/out", "demo", "videos") {
		t.Errorf("output dir = %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REELSMITH_VIDEOS_DIR", "/env/videos")
	t.Setenv("REELSMITH_FFMPEG_THREADS", "8")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Directories.Videos != "/env/videos" {
		t.Errorf("videos dir = %q", cfg.Directories.Videos)
	}
	if cfg.FFmpeg.Threads != 8 {
		t.Errorf("threads = %d", cfg.FFmpeg.Threads)
	}
}
