package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const (
	// MaxErrorBodySize caps how much of a failed response is read for classification.
	MaxErrorBodySize = 64 * 1024
	// MaxBodySize caps successful response bodies.
	MaxBodySize = 32 * 1024 * 1024
)

// RequestFunc builds a fresh request for every attempt; bodies cannot be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client executes requests against one backend with bounded retry, backoff
// with jitter, an optional outbound rate limit and a circuit breaker.
type Client struct {
	service string
	http    *http.Client
	policy  Policy
	limiter *rate.Limiter
	breaker *Breaker
	logger  logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func(max time.Duration) time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (timeouts, tracing transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit throttles outbound requests to rps with the given burst. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker shares b between clients of the same backend.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithSleep overrides how the client waits between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithJitter overrides the jitter source.
func WithJitter(jitter func(max time.Duration) time.Duration) Option {
	return func(c *Client) { c.jitter = jitter }
}

func New(service string, policy Policy, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		service: service,
		http:    &http.Client{Timeout: 30 * time.Second},
		policy:  policy.normalized(),
		logger:  log,
		sleep:   sleepContext,
		jitter:  randomJitter,
	}
	if c.policy.BreakerThreshold > 0 {
		c.breaker = NewBreaker(c.policy.BreakerThreshold, c.policy.BreakerCooldown)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Service() string {
	return c.service
}

// Breaker returns the client's circuit breaker, nil when disabled.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Do sends the request, retrying classified-retryable failures, and returns
// the read body of the first 2xx response. Failures are *apperror.Error.
func (c *Client) Do(ctx context.Context, build RequestFunc) (*Response, error) {
	resp, err := c.send(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, apperror.FromTransport(c.service, fmt.Errorf("failed to read response body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Stream is Do without reading the body: retries cover connection setup and
// non-2xx statuses only. The caller must close the returned body.
func (c *Client) Stream(ctx context.Context, build RequestFunc) (*http.Response, error) {
	return c.send(ctx, build)
}

func (c *Client) send(ctx context.Context, build RequestFunc) (*http.Response, error) {
	if c.breaker == nil {
		return c.retry(ctx, build)
	}
	if !c.breaker.Allow() {
		return nil, c.breaker.openError(c.service)
	}

	resp, err := c.retry(ctx, build)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && c.breaker.RecordFailure(appErr) && c.breaker.Stats().Open {
			c.logger.WithFields(map[string]interface{}{
				"service": c.service,
				"error":   appErr.Error(),
			}).Error("Circuit breaker opened for backend")
		}
		return nil, err
	}
	c.breaker.RecordSuccess()
	return resp, nil
}

func (c *Client) retry(ctx context.Context, build RequestFunc) (*http.Response, error) {
	var lastErr *apperror.Error

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.policy.Delay(attempt-1, c.jitter)
			if lastErr != nil && lastErr.RetryAfter > delay {
				delay = lastErr.RetryAfter
				if delay > c.policy.MaxDelay {
					delay = c.policy.MaxDelay
				}
			}

			c.logger.WithFields(map[string]interface{}{
				"service": c.service,
				"attempt": attempt + 1,
				"delay":   delay.String(),
				"error":   lastErr.Error(),
			}).Warn("Retrying backend request")

			if err := c.sleep(ctx, delay); err != nil {
				return nil, apperror.FromTransport(c.service, err)
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, apperror.FromTransport(c.service, err)
			}
		}

		resp, appErr := c.attempt(ctx, build)
		if appErr == nil {
			return resp, nil
		}

		lastErr = appErr
		if !appErr.Retryable || ctx.Err() != nil {
			return nil, appErr
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"service":  c.service,
		"attempts": c.policy.MaxAttempts,
		"error":    lastErr.Error(),
	}).Error("Backend request failed after retries")

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, build RequestFunc) (*http.Response, *apperror.Error) {
	req, err := build(ctx)
	if err != nil {
		return nil, apperror.InvalidInput(c.service, fmt.Sprintf("failed to build request: %v", err))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		appErr := apperror.FromTransport(c.service, err)
		tracing.RecordBackendAttempt(ctx, c.service, string(appErr.Kind), time.Since(start))
		return nil, appErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		tracing.RecordBackendAttempt(ctx, c.service, "ok", time.Since(start))
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
	appErr := apperror.FromStatus(c.service, resp.StatusCode, body, resp.Header)
	tracing.RecordBackendAttempt(ctx, c.service, string(appErr.Kind), time.Since(start))
	return nil, appErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
