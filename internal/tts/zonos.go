package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reelsmith/reelsmith/internal/config"
)

// zonosProvider drives a Zonos speech server. The server clones a reference
// voice sample and writes the result to the requested path, which must be
// reachable by both sides.
type zonosProvider struct {
	cfg     config.ZonosConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func newZonos(cfg config.ZonosConfig, logger zerolog.Logger) *zonosProvider {
	return &zonosProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Minute},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

func (z *zonosProvider) Name() string     { return "zonos" }
func (z *zonosProvider) Voices() []string { return z.cfg.VoiceSamples }

func (z *zonosProvider) Synthesize(ctx context.Context, req Request) error {
	if err := z.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("text", req.Text)
	q.Set("path", req.OutputPath)
	q.Set("voice", req.Voice)
	if req.Emotion != "" {
		q.Set("emotion", req.Emotion)
	}
	if z.cfg.SpeechRate != "" {
		q.Set("rate", z.cfg.SpeechRate)
	}
	endpoint := fmt.Sprintf("http://%s/generate?%s", z.cfg.Server, q.Encode())

	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := z.client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("zonos returned %s", resp.Status)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		z.logger.Warn().Err(err).Dur("retry_in", wait).Msg("zonos request failed")
	})
}
