package interfaces

import (
	"context"
	"io"
)

// HTTPClient defines the interface for making HTTP requests. The single
// implementation adds retry with backoff; tests substitute mocks.
type HTTPClient interface {
	// Get performs an HTTP GET request to the specified URL.
	Get(ctx context.Context, url string) (Response, error)

	// Post performs an HTTP POST request with the given body.
	Post(ctx context.Context, url string, body io.Reader) (Response, error)
}

// Response abstracts an HTTP response.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int

	// Body returns the response body. The caller must close it.
	Body() io.ReadCloser

	// Header returns the value of the named header, or "" if absent.
	Header(key string) string
}
