package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reelsmith/reelsmith/internal/config"
)

// orpheusProvider drives an Orpheus speech server, which uses named voice
// presets and streams the wav back in the response body.
type orpheusProvider struct {
	cfg     config.OrpheusConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func newOrpheus(cfg config.OrpheusConfig, logger zerolog.Logger) *orpheusProvider {
	return &orpheusProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Minute},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

func (o *orpheusProvider) Name() string     { return "orpheus" }
func (o *orpheusProvider) Voices() []string { return o.cfg.VoicePresets }

func (o *orpheusProvider) Synthesize(ctx context.Context, req Request) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"text":  req.Text,
		"voice": req.Voice,
	})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("http://%s/v1/audio/speech", o.cfg.Server)

	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			err := fmt.Errorf("orpheus returned %s", resp.Status)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		out, err := os.Create(req.OutputPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer out.Close()
		if _, err := io.Copy(out, resp.Body); err != nil {
			os.Remove(req.OutputPath)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		o.logger.Warn().Err(err).Dur("retry_in", wait).Msg("orpheus request failed")
	})
}
