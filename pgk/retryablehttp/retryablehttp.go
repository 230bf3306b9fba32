package retryablehttp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// NoRetries as RetryConfig.MaxRetries sends every request exactly once.
const NoRetries = -1

type RetryConfig struct {
	MaxRetries int           // retries after the first attempt (default 3, NoRetries disables)
	BaseDelay  time.Duration // default 100ms
	MaxDelay   time.Duration // default 5s
	MaxJitter  time.Duration // default 100ms
	Timeout    time.Duration // per-attempt timeout, default 10s
}

type RetryableClient struct {
	client      *http.Client
	retryConfig RetryConfig
}

func NewRetryableClient(config RetryConfig) *RetryableClient {
	switch {
	case config.MaxRetries < 0:
		config.MaxRetries = 0
	case config.MaxRetries == 0:
		config.MaxRetries = 3
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.MaxJitter == 0 {
		config.MaxJitter = 100 * time.Millisecond
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &RetryableClient{
		client:      &http.Client{Timeout: config.Timeout},
		retryConfig: config,
	}
}

// isRetryable reports whether the attempt should be repeated.
func (c *RetryableClient) isRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}

	if resp == nil {
		return false
	}

	statusCode := resp.StatusCode
	return statusCode == 0 ||
		(statusCode >= 500 && statusCode <= 599) ||
		statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout
}

// Do sends req until it succeeds or the retry budget is spent. When the last
// attempt got a response, that response is returned together with the error
// (its body is already closed) so callers can inspect status and headers.
func (c *RetryableClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		attemptReq, rErr := rewind(ctx, req, attempt)
		if rErr != nil {
			return nil, rErr
		}

		resp, err = c.client.Do(attemptReq)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err == nil && !c.isRetryable(resp, nil) {
			return resp, nil
		}

		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		if attempt == c.retryConfig.MaxRetries {
			if resp != nil {
				return resp, fmt.Errorf("last attempt failed: %s", resp.Status)
			}
			return nil, fmt.Errorf("last attempt failed: %w", err)
		}

		delay := c.backoffDelay(attempt)
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := RetryAfter(resp, 0); retryAfter > delay && retryAfter <= c.retryConfig.MaxDelay {
				delay = retryAfter
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, errors.New("unexpected error")
}

// rewind returns a request usable for the given attempt, replaying the body
// through GetBody after the first one.
func rewind(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	out := req.WithContext(ctx)
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}

	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out.Body = body

	return out, nil
}

// backoffDelay grows exponentially from BaseDelay up to MaxDelay plus jitter.
func (c *RetryableClient) backoffDelay(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * c.retryConfig.BaseDelay
	if backoff > c.retryConfig.MaxDelay {
		backoff = c.retryConfig.MaxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(c.retryConfig.MaxJitter)))
	return backoff + jitter
}

// RetryAfter parses the Retry-After header in seconds, falling back to def.
func RetryAfter(resp *http.Response, def time.Duration) time.Duration {
	if resp == nil {
		return def
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return def
}
