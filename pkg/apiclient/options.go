package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "danmaku-webclient/1.0"

	// MaxBodySize caps how much of a response body is read
	MaxBodySize = 1 << 20
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying client, including its transport chain and cookie jar.
// Its Timeout should be zero; deadlines are applied per request.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the default per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger logs requests that got no response
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// requestOptions holds per-call settings
type requestOptions struct {
	timeout time.Duration
	headers map[string]string
}

// RequestOption configures a single Do call
type RequestOption func(*requestOptions)

// WithRequestTimeout overrides the client timeout for one call
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a header to one call
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if key == "" {
			return
		}
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}
