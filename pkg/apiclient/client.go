package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/requestid"
)

// Response is any HTTP response that reached the client, whatever its status
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return io.EOF
	}
	return json.Unmarshal(r.Body, v)
}

// Client sends JSON requests to the accounts API relative to a base URL
type Client struct {
	http      *http.Client
	base      *url.URL
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// New creates a client for baseURL, e.g. "http://localhost:8000/api/accounts/".
// A trailing slash is added so relative paths resolve under it.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		http:      &http.Client{},
		base:      base,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the base URL
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// URL resolves path against the base URL
func (c *Client) URL(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	return c.base.ResolveReference(ref), nil
}

// Jar returns the cookie jar of the underlying http.Client
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Do sends a request and returns the response for any HTTP status.
// A nil body sends no payload; any other value is encoded as JSON.
// The error is non-nil only when the request could not be built or no
// response reached the client (ErrConnectivity, ErrTimeout).
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	options := requestOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&options)
	}

	u, err := c.URL(path)
	if err != nil {
		return nil, err
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Join(ErrEncodeBody, err)
		}
		payload = bytes.NewReader(data)
	}

	ctx, id := requestid.Ensure(ctx)
	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, u.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestid.Header, id)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			logger.Method(method),
			logger.URL(u.String()),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		// a status line arrived, so the partial body is still a response
		c.logger.WarnContext(ctx, "failed to read response body",
			logger.URL(u.String()),
			logger.Status(resp.StatusCode),
			logger.Error(err),
		)
	}
	if len(data) > MaxBodySize {
		c.logger.WarnContext(ctx, "response body truncated",
			logger.URL(u.String()),
			slog.Int("limit", MaxBodySize),
		)
		data = data[:MaxBodySize]
	}

	c.logger.DebugContext(ctx, "request completed",
		logger.Method(method),
		logger.URL(u.String()),
		logger.Status(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
