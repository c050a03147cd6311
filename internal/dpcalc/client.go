package dpcalc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/preservation-eval/internal/observability"
)

// Client fetches the calculator source document over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a source document client with a bounded request timeout.
// The timeout is the only retry/cancellation mechanism the client provides;
// callers that need retry or backoff wrap Fetch themselves.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// URL returns the configured source document URL.
func (c *Client) URL() string { return c.url }

// Fetch retrieves the source document bytes. Transport failures and non-2xx
// statuses are reported as a *FetchError; no retry is performed.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, &FetchError{URL: c.url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, &FetchError{URL: c.url, Err: err}
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.logger.Debug("fetched source document", "url", c.url, "bytes", len(body))
	return body, nil
}
