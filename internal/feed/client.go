package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Client retrieves the raw CSV export over HTTP. Retries on transient
// failures (429, 5xx, network) with capped exponential backoff; retry
// policy lives here, not in the summarization engine.
type Client struct {
	httpClient       *http.Client
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewClient returns a retrieval client with the given timeout and retry
// behavior. Non-positive values fall back to defaults.
func NewClient(httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// Get fetches url and returns the body bytes. Context cancellation
// aborts the retrieval, including between retry attempts.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				lastErr = err
				if !sleepCtx(ctx, withJitter(backoff, c.retryMaxDelay)) {
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return nil, fmt.Errorf("http request: %w", err)
		}

		body, readErr := func() ([]byte, error) {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return io.ReadAll(resp.Body)
		}()
		if readErr != nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests ||
				(resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if retryable && attempt < c.retryMaxAttempts {
				lastErr = readErr
				if !sleepCtx(ctx, withJitter(backoff, c.retryMaxDelay)) {
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return nil, readErr
		}
		return body, nil
	}
	if lastErr == nil {
		lastErr = errors.New("retrieval failed")
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func isRetryableNetErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || !errors.Is(err, context.Canceled)
	}
	return false
}

func withJitter(d, limit time.Duration) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	d += jitter
	if limit > 0 && d > limit {
		d = limit
	}
	return d
}

// sleepCtx waits for d or until ctx is done; false means cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
