// ABOUTME: Outbound HTTP client with a configurable retry budget
// ABOUTME: Backoff doubles per attempt; 4xx responses are never retried

package standard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsfetch-api/core/interfaces"
)

const userAgent = "NewsfetchAPI/1.0"

// StandardHTTPClient implements the HTTPClient interface using the standard
// library with bounded retries on GET.
type StandardHTTPClient struct {
	client  *http.Client
	retries int
	backoff time.Duration
}

// NewStandardHTTPClient creates a client with the given timeout, attempt
// budget, and initial backoff. Non-positive retries or backoff select the
// defaults (3 attempts, 100ms).
func NewStandardHTTPClient(timeout time.Duration, retries int, backoff time.Duration) *StandardHTTPClient {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &StandardHTTPClient{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: backoff,
	}
}

// Get performs an HTTP GET request, retrying transport errors and 5xx
// responses up to the attempt budget.
func (c *StandardHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	var lastErr error
	delay := c.backoff

	for attempt := 1; attempt <= c.retries; attempt++ {
		resp, err := c.client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
		default:
			// Success and 4xx both end the loop; the caller decides what a
			// client error means.
			return newResponse(resp), nil
		}

		if attempt == c.retries {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// Post performs an HTTP POST request. POSTs are not retried: the callers
// (LLM providers) are not idempotent-safe.
func (c *StandardHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return newResponse(resp), nil
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
}

func newResponse(resp *http.Response) *httpResponse {
	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
	}
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the named header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}
