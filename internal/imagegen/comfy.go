// Package imagegen generates per-slide background images through a ComfyUI
// server.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelsmith/reelsmith/internal/config"
)

// Client talks to a ComfyUI server: queue a workflow, poll its history
// until the run finishes, then download the produced image.
type Client struct {
	cfg          config.ImagesConfig
	client       *http.Client
	clientID     string
	pollInterval time.Duration
	logger       zerolog.Logger
}

func NewClient(cfg config.ImagesConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		client:       &http.Client{Timeout: 2 * time.Minute},
		clientID:     uuid.NewString(),
		pollInterval: 2 * time.Second,
		logger:       logger,
	}
}

// Request describes one image to generate.
type Request struct {
	Prompt     string
	Width      int
	Height     int
	Seed       int64 // 0 picks a random seed
	OutputPath string
}

// Generate runs one workflow to completion and writes the image to
// req.OutputPath.
func (c *Client) Generate(ctx context.Context, req Request) error {
	seed := req.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	promptID, err := c.queue(ctx, c.workflow(req, seed))
	if err != nil {
		return fmt.Errorf("queue image prompt: %w", err)
	}
	c.logger.Debug().Str("prompt_id", promptID).Msg("image prompt queued")

	output, err := c.waitForOutput(ctx, promptID)
	if err != nil {
		return fmt.Errorf("wait for image %s: %w", promptID, err)
	}
	if err := c.download(ctx, output, req.OutputPath); err != nil {
		return fmt.Errorf("download image %s: %w", promptID, err)
	}
	return nil
}

// workflow builds the minimal text-to-image graph ComfyUI expects: loader,
// prompts, sampler, decode, save.
func (c *Client) workflow(req Request, seed int64) map[string]any {
	steps := c.cfg.Steps
	if steps <= 0 {
		steps = 20
	}
	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs":     map[string]any{"ckpt_name": "sd_xl_base_1.0.safetensors"},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs":     map[string]any{"text": req.Prompt, "clip": []any{"1", 1}},
		},
		"3": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs":     map[string]any{"text": c.cfg.NegativePrompt, "clip": []any{"1", 1}},
		},
		"4": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs":     map[string]any{"width": req.Width, "height": req.Height, "batch_size": 1},
		},
		"5": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"model": []any{"1", 0}, "positive": []any{"2", 0}, "negative": []any{"3", 0},
				"latent_image": []any{"4", 0},
				"seed":         seed, "steps": steps, "cfg": 7.0,
				"sampler_name": "euler", "scheduler": "normal", "denoise": 1.0,
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs":     map[string]any{"samples": []any{"5", 0}, "vae": []any{"1", 2}},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs":     map[string]any{"images": []any{"6", 0}, "filename_prefix": "reelsmith"},
		},
	}
}

func (c *Client) queue(ctx context.Context, workflow map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":    workflow,
		"client_id": c.clientID,
	})
	if err != nil {
		return "", err
	}

	var promptID string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("http://%s/prompt", c.cfg.ComfyAddress), bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("comfy returned %s", resp.Status)
		}
		var out struct {
			PromptID string `json:"prompt_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(err)
		}
		promptID = out.PromptID
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return promptID, nil
}

// outputImage is the location of a finished image on the server.
type outputImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

func (c *Client) waitForOutput(ctx context.Context, promptID string) (*outputImage, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		img, done, err := c.pollHistory(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if done {
			return img, nil
		}
	}
}

func (c *Client) pollHistory(ctx context.Context, promptID string) (*outputImage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s/history/%s", c.cfg.ComfyAddress, promptID), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("comfy history returned %s", resp.Status)
	}

	var history map[string]struct {
		Outputs map[string]struct {
			Images []outputImage `json:"images"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, false, err
	}

	entry, ok := history[promptID]
	if !ok {
		return nil, false, nil // still running
	}
	for _, node := range entry.Outputs {
		for _, img := range node.Images {
			if img.Type == "output" {
				return &img, true, nil
			}
		}
	}
	return nil, false, fmt.Errorf("prompt %s finished without an output image", promptID)
}

func (c *Client) download(ctx context.Context, img *outputImage, dest string) error {
	q := url.Values{}
	q.Set("filename", img.Filename)
	q.Set("subfolder", img.Subfolder)
	q.Set("type", img.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s/view?%s", c.cfg.ComfyAddress, q.Encode()), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("comfy view returned %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
