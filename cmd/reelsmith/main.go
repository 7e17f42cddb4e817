package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/logging"
	"github.com/reelsmith/reelsmith/internal/pipeline"
	"github.com/reelsmith/reelsmith/internal/scenario"
)

var (
	cfgFile string
	verbose bool

	renderCount    int
	renderForce    bool
	renderScenario string
	renderSeed     int64

	voiceForce    bool
	voiceScenario string

	imagesForce    bool
	imagesScenario string

	cleanVideos bool
	cleanVoice  bool
	cleanImages bool
	cleanAll    bool
)

func main() {
	// Interrupt stops the batch between scenarios; the scenario already
	// rendering finishes first.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelsmith",
	Short: "reelsmith - scenario-driven short video generator",
	Long:  "Turns YAML scenario scripts into finished short-form videos: narration, background media, text and emoji overlays, mixed audio.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	renderCmd.Flags().IntVarP(&renderCount, "count", "n", 0, "render at most N scenarios (0 = all unprocessed)")
	renderCmd.Flags().BoolVarP(&renderForce, "force", "f", false, "re-render scenarios already marked processed")
	renderCmd.Flags().StringVarP(&renderScenario, "scenario", "s", "", "render a single scenario (id or path)")
	renderCmd.Flags().Int64Var(&renderSeed, "seed", 0, "seed for scenario selection and overlay placement")

	voiceCmd.Flags().BoolVarP(&voiceForce, "force", "f", false, "regenerate existing narration")
	voiceCmd.Flags().StringVarP(&voiceScenario, "scenario", "s", "", "limit to a single scenario (id or path)")

	imagesCmd.Flags().BoolVarP(&imagesForce, "force", "f", false, "regenerate existing images")
	imagesCmd.Flags().StringVarP(&imagesScenario, "scenario", "s", "", "limit to a single scenario (id or path)")

	cleanCmd.Flags().BoolVar(&cleanVideos, "videos", false, "remove rendered videos and reset processed flags")
	cleanCmd.Flags().BoolVar(&cleanVoice, "voice", false, "remove generated narration")
	cleanCmd.Flags().BoolVar(&cleanImages, "images", false, "remove generated images")
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove everything generated")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cleanCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render scenarios into finished videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(cfg, log.Logger)
		if err != nil {
			return err
		}

		summary, err := pipe.Render(cmd.Context(), pipeline.RenderOptions{
			Count:    renderCount,
			Force:    renderForce,
			Scenario: renderScenario,
			Seed:     renderSeed,
		})
		if err != nil {
			return err
		}

		for _, f := range summary.Failures {
			log.Error().Str("scenario", f.ScenarioID).Err(f.Err).Msg("failed")
		}
		if summary.Attempted > 0 && summary.Succeeded == 0 {
			return fmt.Errorf("no videos generated: %d scenario(s) attempted, all failed", summary.Attempted)
		}
		log.Info().
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("render complete")
		return nil
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Generate narration audio for scenario slides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(cfg, log.Logger)
		if err != nil {
			return err
		}

		summary, err := pipe.GenerateVoice(cmd.Context(), pipeline.VoiceOptions{
			Force:    voiceForce,
			Scenario: voiceScenario,
		})
		if err != nil {
			return err
		}

		log.Info().
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("voice generation complete")
		return nil
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Generate background images for scenario slides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(cfg, log.Logger)
		if err != nil {
			return err
		}

		summary, err := pipe.GenerateImages(cmd.Context(), pipeline.ImageOptions{
			Force:    imagesForce,
			Scenario: imagesScenario,
		})
		if err != nil {
			return err
		}

		log.Info().
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("image generation complete")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios and their processed state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		store := scenario.NewStore(cfg.ScenariosDir(), log.Logger)
		paths, err := store.List()
		if err != nil {
			return err
		}

		for _, path := range paths {
			sc, err := scenario.Read(path)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("unreadable scenario")
				continue
			}
			log.Info().
				Str("id", scenario.ID(path)).
				Str("topic", sc.Topic).
				Int("slides", len(sc.Slides)).
				Bool("processed", sc.HasVideo).
				Msg("scenario")
		}
		log.Info().Int("total", len(paths)).Msg("scenarios listed")
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(cfg, log.Logger)
		if err != nil {
			return err
		}

		return pipe.Clean(pipeline.CleanOptions{
			Videos: cleanVideos,
			Voice:  cleanVoice,
			Images: cleanImages,
			All:    cleanAll,
		})
	},
}
