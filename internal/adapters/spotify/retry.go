package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/sony/gobreaker/v2"

	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/metrics"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxBackoff        = 30 * time.Second
)

// retryableStatusError marks a 429 or 5xx response.
type retryableStatusError struct {
	status     int
	retryAfter time.Duration
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

// doRequestWithRetry executes the request built by newReq, retrying transport
// errors, 429 and 5xx responses with exponential backoff. A Retry-After header
// overrides the backoff. Non-retryable responses are returned as-is; failures
// come back as *ports.UpstreamError.
func (c *Client) doRequestWithRetry(ctx context.Context, op string, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response

	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := newReq()
			if err != nil {
				return retry.Unrecoverable(err)
			}

			r, err := c.breaker.Execute(func() (*http.Response, error) {
				// #nosec G107 -- URL constructed from the configured API base URL
				r, err := c.httpClient.Do(req)
				if err != nil {
					return nil, err
				}
				if r.StatusCode >= http.StatusInternalServerError {
					metrics.ObserveSpotify(op, r.StatusCode)
					drainAndClose(r)
					return nil, &retryableStatusError{status: r.StatusCode, retryAfter: parseRetryAfter(r)}
				}
				return r, nil
			})
			switch {
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return retry.Unrecoverable(err)
			case err != nil:
				if ctx.Err() != nil {
					return retry.Unrecoverable(ctx.Err())
				}
				return err
			}

			metrics.ObserveSpotify(op, r.StatusCode)
			if r.StatusCode == http.StatusTooManyRequests {
				retryAfter := parseRetryAfter(r)
				drainAndClose(r)
				return &retryableStatusError{status: r.StatusCode, retryAfter: retryAfter}
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.baseBackoff),
		retry.MaxDelay(maxBackoff),
		retry.DelayType(retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			// retry-go also fires this hook after the final attempt
			if n+1 >= uint(c.maxRetries) {
				return
			}
			metrics.SpotifyRetries.Inc()
			c.logger.Warn().
				Str("operation", op).
				Uint("attempt", n+1).
				Int("max_attempts", c.maxRetries).
				Err(err).
				Msg("retrying request")
		}),
	)
	if err == nil {
		return resp, nil
	}

	var rs *retryableStatusError
	if errors.As(err, &rs) {
		return nil, &ports.UpstreamError{Op: op, StatusCode: rs.status}
	}
	if ctx.Err() != nil {
		return nil, &ports.UpstreamError{Op: op, Err: fmt.Errorf("request canceled: %w", ctx.Err())}
	}
	metrics.ObserveSpotify(op, 0)
	return nil, &ports.UpstreamError{Op: op, Err: err}
}

// retryDelay honors Retry-After and otherwise backs off exponentially.
func retryDelay(n uint, err error, config *retry.Config) time.Duration {
	var rs *retryableStatusError
	if errors.As(err, &rs) && rs.retryAfter > 0 {
		return rs.retryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
