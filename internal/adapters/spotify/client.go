package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/logging"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Client is an HTTP client for the Spotify Web API. Every call carries the
// caller's bearer token; the client itself holds no credentials.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	logger      zerolog.Logger
}

// compile-time interface assertions
var (
	_ ports.TasteSource       = (*Client)(nil)
	_ ports.ArtistTrackSource = (*Client)(nil)
	_ ports.PlaylistPublisher = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the attempt count and the base of the exponential backoff.
func WithRetry(maxRetries int, baseBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if baseBackoff > 0 {
			c.baseBackoff = baseBackoff
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) {
		c.breaker = newBreaker(cfg, c.logger)
	}
}

// NewClient constructs a new Spotify client.
func NewClient(httpClient *http.Client, baseURL string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := logging.Component("spotify")
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBackoff,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		logger:      logger,
	}
	c.breaker = newBreaker(DefaultBreakerConfig(), logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, op, token, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, token, c.endpoint(path, query), nil, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, token, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: encode: %w", op, err)
	}
	return c.do(ctx, op, method, token, c.endpoint(path, nil), body, out)
}

// do runs one logical API call with retries and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, token, endpoint string, body []byte, out any) error {
	newReq := func() (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	resp, err := c.doRequestWithRetry(ctx, op, newReq)
	if err != nil {
		return fmt.Errorf("spotify adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify adapter: %w", &ports.UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        readAPIError(resp.Body),
		})
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: %s: decode: %w", op, err)
	}
	return nil
}

// readAPIError extracts the message of a Spotify error object, if any.
func readAPIError(r io.Reader) error {
	var body apiErrorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil || body.Error.Message == "" {
		return nil
	}
	return fmt.Errorf("%s", body.Error.Message)
}
