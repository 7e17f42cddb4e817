package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelsmith/reelsmith/internal/compose"
	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/media"
	"github.com/reelsmith/reelsmith/internal/scenario"
)

// stubRenderer records jobs and fails the scenarios it is told to fail.
type stubRenderer struct {
	jobs    []compose.Job
	failIDs map[string]bool
}

func (s *stubRenderer) Render(_ context.Context, job compose.Job) error {
	s.jobs = append(s.jobs, job)
	if s.failIDs[job.ScenarioID] {
		return errors.New("boom")
	}
	return nil
}

// testPipeline wires a pipeline against temp directories with no external
// binaries involved.
func testPipeline(t *testing.T, renderer VideoRenderer) (*Pipeline, *config.Config) {
	t.Helper()

	root := t.TempDir()
	videosDir := filepath.Join(root, "videos")
	musicDir := filepath.Join(root, "music")
	for _, dir := range []string{videosDir, musicDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(videosDir, "city.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(musicDir, "piano.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{ProjectName: "test"}
	cfg.Directories.Videos = videosDir
	cfg.Directories.Music = musicDir
	cfg.Directories.OutputRoot = filepath.Join(root, "out")
	cfg.Directories.Scenarios = "scenarios"
	cfg.Directories.VoiceLines = "voice_lines"
	cfg.Directories.Images = "images"
	cfg.Directories.Videos_ = "videos"
	cfg.Video.Orientation = "vertical"
	cfg.Video.Quality = 1.0
	cfg.Video.TrailingBuffer = 0.5

	if err := os.MkdirAll(cfg.ScenariosDir(), 0755); err != nil {
		t.Fatal(err)
	}

	videos, err := media.OpenLibrary(videosDir)
	if err != nil {
		t.Fatal(err)
	}
	music, err := media.OpenLibrary(musicDir)
	if err != nil {
		t.Fatal(err)
	}

	fontsDir := filepath.Join(root, "fonts")
	if err := os.MkdirAll(fontsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"alpha.ttf", "bravo.ttf", "charlie.ttf"} {
		if err := os.WriteFile(filepath.Join(fontsDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	fonts, err := media.OpenFontPool(fontsDir)
	if err != nil {
		t.Fatal(err)
	}

	return &Pipeline{
		cfg:        cfg,
		renderer:   renderer,
		store:      scenario.NewStore(cfg.ScenariosDir(), zerolog.Nop()),
		videos:     videos,
		music:      music,
		fonts:      fonts,
		emojiFonts: fonts,
		logger:     zerolog.Nop(),
	}, cfg
}

func addScenario(t *testing.T, cfg *config.Config, id string) {
	t.Helper()
	s := &scenario.Scenario{
		Topic: "topic " + id,
		Slides: []scenario.Slide{
			{Text: "hello there", DurationSeconds: 3},
			{Text: "goodbye now", DurationSeconds: 2},
		},
		Music: "piano",
		Video: "city",
	}
	if err := scenario.Write(filepath.Join(cfg.ScenariosDir(), id+".yaml"), s); err != nil {
		t.Fatal(err)
	}
}

func TestRenderBatchIsolatesFailures(t *testing.T) {
	stub := &stubRenderer{failIDs: map[string]bool{"s_00002": true}}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")
	addScenario(t, cfg, "s_00002")
	addScenario(t, cfg, "s_00003")

	summary, err := pipe.Render(context.Background(), RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Attempted != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].ScenarioID != "s_00002" {
		t.Errorf("failures = %+v", summary.Failures)
	}

	// The failed scenario stays unprocessed; the others are marked.
	unprocessed, err := pipe.store.ListUnprocessed()
	if err != nil {
		t.Fatal(err)
	}
	if len(unprocessed) != 1 || scenario.ID(unprocessed[0]) != "s_00002" {
		t.Errorf("unprocessed after batch = %v", unprocessed)
	}
}

func TestRenderSkipsProcessed(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")
	addScenario(t, cfg, "s_00002")

	if _, err := pipe.Render(context.Background(), RenderOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(stub.jobs) != 2 {
		t.Fatalf("first batch rendered %d jobs", len(stub.jobs))
	}

	summary, err := pipe.Render(context.Background(), RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 0 {
		t.Errorf("second batch attempted %d, want 0", summary.Attempted)
	}

	summary, err = pipe.Render(context.Background(), RenderOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 2 {
		t.Errorf("forced batch attempted %d, want 2", summary.Attempted)
	}
}

func TestRenderSingleScenario(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")
	addScenario(t, cfg, "s_00002")

	summary, err := pipe.Render(context.Background(), RenderOptions{Scenario: "s_00002"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 1 || len(stub.jobs) != 1 {
		t.Fatalf("summary = %+v, jobs = %d", summary, len(stub.jobs))
	}
	if stub.jobs[0].ScenarioID != "s_00002" {
		t.Errorf("rendered %s", stub.jobs[0].ScenarioID)
	}

	if _, err := pipe.Render(context.Background(), RenderOptions{Scenario: "missing"}); err == nil {
		t.Error("unknown scenario should error")
	}
}

func TestRenderCountLimit(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	for i := 1; i <= 5; i++ {
		addScenario(t, cfg, fmt.Sprintf("s_%05d", i))
	}

	summary, err := pipe.Render(context.Background(), RenderOptions{Count: 2, Seed: 99})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 2 {
		t.Errorf("attempted %d, want 2", summary.Attempted)
	}
}

func TestRenderStopsOnCanceledContext(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := pipe.Render(ctx, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 0 || len(stub.jobs) != 0 {
		t.Errorf("canceled batch still ran: %+v", summary)
	}
}

func TestRenderJobAssembly(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")

	if _, err := pipe.Render(context.Background(), RenderOptions{}); err != nil {
		t.Fatal(err)
	}

	job := stub.jobs[0]
	if filepath.Base(job.VideoPath) != "city.mp4" {
		t.Errorf("video resolved to %s", job.VideoPath)
	}
	if filepath.Base(job.MusicPath) != "piano.mp3" {
		t.Errorf("music resolved to %s", job.MusicPath)
	}
	if len(job.Entries) != 2 {
		t.Fatalf("job has %d entries", len(job.Entries))
	}
	// No narration on disk, so authored durations carry through.
	if job.Entries[0].Duration != 3 || job.Entries[1].Duration != 2 {
		t.Errorf("durations = %v, %v", job.Entries[0].Duration, job.Entries[1].Duration)
	}
	if job.Total != 5 {
		t.Errorf("total = %v", job.Total)
	}
	if filepath.Base(job.OutputPath) != "s_00001.mp4" {
		t.Errorf("output = %s", job.OutputPath)
	}

	// Same scenario id always derives the same seed.
	if seedFor("s_00001", 0) != seedFor("s_00001", 0) {
		t.Error("seed not stable")
	}
	if seedFor("s_00001", 0) == seedFor("s_00002", 0) {
		t.Error("different scenarios share a seed")
	}
}

func TestRenderFontSelection(t *testing.T) {
	stub := &stubRenderer{}
	pipe, cfg := testPipeline(t, stub)
	addScenario(t, cfg, "s_00001")

	cfg.Video.UseConsistentFont = true
	if _, err := pipe.Render(context.Background(), RenderOptions{}); err != nil {
		t.Fatal(err)
	}

	job := stub.jobs[0]
	if len(job.FontPaths) != len(job.Entries) {
		t.Fatalf("got %d font paths for %d entries", len(job.FontPaths), len(job.Entries))
	}
	if job.FontPaths[0] == "" {
		t.Fatal("font pool not consulted")
	}
	for i, f := range job.FontPaths {
		if f != job.FontPaths[0] {
			t.Errorf("consistent mode mixed fonts: entry %d got %s", i, f)
		}
	}

	// With consistency off, each slide draws its own font from the
	// scenario's seeded sequence.
	stub.jobs = nil
	cfg.Video.UseConsistentFont = false
	if _, err := pipe.Render(context.Background(), RenderOptions{Force: true}); err != nil {
		t.Fatal(err)
	}

	job = stub.jobs[0]
	expRng := rand.New(rand.NewSource(seedFor("s_00001", 0)))
	for i := range job.Entries {
		want := pipe.fonts.Pick(expRng)
		if job.FontPaths[i] != want {
			t.Errorf("entry %d font = %s, want %s", i, job.FontPaths[i], want)
		}
	}
}
