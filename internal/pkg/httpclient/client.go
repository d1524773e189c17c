package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for JSON requests against the ledger and other upstream APIs.
type Client struct {
	r *resty.Client
}

// Response is the raw outcome of a request.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithBaseURL resolves relative request paths against base.
func (c *Client) WithBaseURL(base string) *Client {
	c.r.SetBaseURL(strings.TrimRight(strings.TrimSpace(base), "/"))
	return c
}

// WithRetryCount overrides how many times transport errors are retried.
func (c *Client) WithRetryCount(n int) *Client {
	c.r.SetRetryCount(n)
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// RequestOption customizes a single request.
type RequestOption func(*resty.Request)

// WithRequestHeader sets a header on one request only.
func WithRequestHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path, token string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, token, nil, opts...)
}

// Put sends a PUT request with JSON body.
func (c *Client) Put(ctx context.Context, path, token string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, token, body, opts...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path, token string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, token, nil, opts...)
}

// Do executes a request. An empty token sends no Authorization header.
// Non-2xx responses are returned without error; callers inspect StatusCode.
func (c *Client) Do(ctx context.Context, method, path, token string, body interface{}, opts ...RequestOption) (*Response, error) {
	req := c.r.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	for _, opt := range opts {
		opt(req)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
