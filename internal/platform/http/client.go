package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting
type Client struct {
	HTTPClient      *http.Client
	Limiter         *rate.Limiter
	maxRetryTimeout time.Duration
	logger          zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetryTimeout: opts.MaxRetryTimeout,
		logger:          log.With().Str("component", "http_client").Logger(),
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Client errors other than 429 are not retried.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		resp, err = c.HTTPClient.Do(req.Clone(ctx))
		if err != nil {
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("Request failed")
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			c.logger.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("Retrying request")
			return statusErr
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.maxRetryTimeout

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}
