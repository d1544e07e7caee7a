// Package remote talks to the image feed API over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultUserAgent = "feedcore/1.0 (image feed client; github.com/pders01/feedcore)"
	DefaultTimeout   = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read into memory.
	DefaultMaxBodySize = 32 << 20
)

// ErrConnectivity is wrapped by every transport level failure: DNS,
// refused connections, timeouts and bodies over the size limit.
var ErrConnectivity = errors.New("connectivity error")

// ErrBodyTooLarge is returned, wrapped with ErrConnectivity, when a body
// exceeds the size limit. A cut off body is never delivered.
var ErrBodyTooLarge = errors.New("response body too large")

// Response is a fully read HTTP response.
type Response struct {
	Body       []byte
	StatusCode int
	Header     http.Header
}

// HTTPClient performs GET requests. It is satisfied by *Client and by
// test doubles.
type HTTPClient interface {
	Get(ctx context.Context, u *url.URL) (*Response, error)
}

// Client is the net/http backed HTTPClient.
type Client struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

var _ HTTPClient = (*Client)(nil)

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithHTTPClient replaces the underlying client, keeping the configured
// timeout unless the given client sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		if hc.Timeout == 0 {
			hc.Timeout = c.client.Timeout
		}
		c.client = hc
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		client:      &http.Client{Timeout: DefaultTimeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches u. Any HTTP status is a successful response; interpreting
// it is the mapper's job. Cancelling ctx aborts the request.
func (c *Client) Get(ctx context.Context, u *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml, image/*;q=0.9, */*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrConnectivity, u.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrConnectivity, err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: %w: %s exceeds %d bytes", ErrConnectivity, ErrBodyTooLarge, u.Redacted(), c.maxBodySize)
	}

	return &Response{Body: body, StatusCode: resp.StatusCode, Header: resp.Header}, nil
}
