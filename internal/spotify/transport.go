package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/slx/internal/shared"
)

// RetryPolicy controls how [Transport] reacts to transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// DefaultRetryPolicy mirrors the API's published guidance: honor Retry-After
// on 429, exponential backoff with jitter on server errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxJitter:   300 * time.Millisecond,
	}
}

// APIError is a terminal non-2xx response from the Spotify API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
}

// SleepFunc pauses between retry attempts. Injectable so tests can assert the
// backoff schedule without waiting it out.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transport executes API requests with rate limiting and retries.
//
// 429 responses are retried after the Retry-After interval, 5xx responses
// after exponential backoff with jitter. Any other non-2xx status is terminal
// and surfaces as an [*APIError]. Network errors are retried on the same
// backoff schedule as server errors.
type Transport struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  RetryPolicy
	sleep   SleepFunc
	logger  *log.Logger
}

// NewTransport creates a transport with the default retry policy and a
// limiter tuned below the API's soft rate ceiling.
func NewTransport(logger *log.Logger) *Transport {
	return &Transport{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		policy:  DefaultRetryPolicy(),
		sleep:   defaultSleep,
		logger:  logger,
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func (t *Transport) WithHTTPClient(client *http.Client) *Transport {
	t.client = client
	return t
}

// WithPolicy overrides the retry policy.
func (t *Transport) WithPolicy(policy RetryPolicy) *Transport {
	t.policy = policy
	return t
}

// WithRateLimit overrides the outbound request limiter.
func (t *Transport) WithRateLimit(limiter *rate.Limiter) *Transport {
	t.limiter = limiter
	return t
}

// WithSleep overrides the inter-attempt sleep function.
func (t *Transport) WithSleep(sleep SleepFunc) *Transport {
	t.sleep = sleep
	return t
}

// Do executes req, retrying per the policy. On success the response body is
// open and owned by the caller.
func (t *Transport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= t.policy.MaxAttempts; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := t.client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			t.logger.Warn("request failed", "url", req.URL.Path, "attempt", attempt, "error", err)
			if attempt < t.policy.MaxAttempts {
				if err := t.sleep(ctx, t.backoff(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = apiErr
			delay := t.retryAfter(resp, attempt)
			t.logger.Warn("rate limited", "url", req.URL.Path, "attempt", attempt, "delay", delay)
			if attempt < t.policy.MaxAttempts {
				if err := t.sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
		case resp.StatusCode >= 500:
			lastErr = apiErr
			t.logger.Warn("server error", "url", req.URL.Path, "status", resp.StatusCode, "attempt", attempt)
			if attempt < t.policy.MaxAttempts {
				if err := t.sleep(ctx, t.backoff(attempt)); err != nil {
					return nil, err
				}
			}
		default:
			return nil, apiErr
		}
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %w", shared.ErrAPIRequest, t.policy.MaxAttempts, lastErr)
}

// backoff returns the exponential delay for the given 1-based attempt plus
// random jitter.
func (t *Transport) backoff(attempt int) time.Duration {
	delay := t.policy.BaseDelay * (1 << (attempt - 1))
	if t.policy.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(t.policy.MaxJitter)))
	}
	return delay
}

// retryAfter reads the Retry-After header of a 429 response, clamping to a
// minimum of one second. Falls back to exponential backoff without jitter
// when the header is missing or malformed.
func (t *Transport) retryAfter(resp *http.Response, attempt int) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return t.policy.BaseDelay * (1 << (attempt - 1))
	}
	seconds, err := strconv.Atoi(header)
	if err != nil {
		return t.policy.BaseDelay * (1 << (attempt - 1))
	}
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// IsStatus reports whether err is an [*APIError] with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// StatusOf returns the status code of an [*APIError] in err's chain, or nil.
func StatusOf(err error) *int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &apiErr.Status
	}
	return nil
}
