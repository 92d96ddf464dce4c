package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestOptions carries per-call headers and an optional deadline
// override for a single outbound request.
type RequestOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

// Response is a transport-level HTTP result. The body is opaque to the
// transport; interpretation belongs to the caller.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport is the outbound HTTP capability the UPS adapter consumes.
// Implementations must honor the request context and the per-call
// timeout; tests inject stubs through this interface.
type Transport interface {
	// Post sends a JSON-encoded body.
	Post(ctx context.Context, endpoint string, body any, opts RequestOptions) (*Response, error)

	// PostForm sends a URL-encoded form body.
	PostForm(ctx context.Context, endpoint string, form url.Values, opts RequestOptions) (*Response, error)
}

// HTTPTransport is the production Transport on net/http.
type HTTPTransport struct {
	httpClient     *http.Client
	defaultTimeout time.Duration
}

// NewHTTPTransport creates a transport with the given default timeout.
// A zero timeout falls back to 30 seconds.
func NewHTTPTransport(defaultTimeout time.Duration) *HTTPTransport {
	if defaultTimeout == 0 {
		defaultTimeout = 30 * time.Second
	}
	return &HTTPTransport{
		httpClient:     &http.Client{},
		defaultTimeout: defaultTimeout,
	}
}

// Post sends a JSON-encoded body.
func (t *HTTPTransport) Post(ctx context.Context, endpoint string, body any, opts RequestOptions) (*Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return t.do(ctx, endpoint, "application/json", jsonBody, opts)
}

// PostForm sends a URL-encoded form body.
func (t *HTTPTransport) PostForm(ctx context.Context, endpoint string, form url.Values, opts RequestOptions) (*Response, error) {
	return t.do(ctx, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()), opts)
}

func (t *HTTPTransport) do(ctx context.Context, endpoint, contentType string, body []byte, opts RequestOptions) (*Response, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = t.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// isTimeout reports whether a transport failure was a deadline or abort
// rather than a connectivity problem.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	// net/http wraps context deadline errors in url.Error with a text
	// that survives even when Timeout() is unset on older paths.
	return strings.Contains(err.Error(), "context deadline exceeded")
}

var _ Transport = (*HTTPTransport)(nil)
