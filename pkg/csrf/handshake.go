package csrf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmaku-system/webclient/pkg/apiclient"
	"github.com/danmaku-system/webclient/pkg/logger"
)

// Doer sends a request relative to the API base URL
type Doer interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
	URL(path string) (*url.URL, error)
}

// Handshake obtains the anti-forgery cookie with a single GET request
type Handshake struct {
	client  Doer
	path    string
	timeout time.Duration
	onReady func()
	tokens  TokenSource
	logger  *slog.Logger

	once  sync.Once
	err   error
	ready atomic.Bool
}

// NewHandshake creates a handshake against client
func NewHandshake(client Doer, opts ...Option) *Handshake {
	h := &Handshake{
		client:  client,
		path:    DefaultPath,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Bootstrap performs the handshake. Only the first call sends a request;
// later calls return its result.
//
// Any HTTP response marks the handshake ready, whatever its status. When no
// response arrives the error wraps ErrHandshakeFailed and Ready stays false.
func (h *Handshake) Bootstrap(ctx context.Context) error {
	h.once.Do(func() {
		h.err = h.run(ctx)
	})
	return h.err
}

// Ready reports whether the handshake got a response
func (h *Handshake) Ready() bool {
	return h.ready.Load()
}

func (h *Handshake) run(ctx context.Context) error {
	resp, err := h.client.Do(ctx, http.MethodGet, h.path, nil, apiclient.WithRequestTimeout(h.timeout))
	if err != nil {
		h.logger.WarnContext(ctx, "csrf handshake failed",
			logger.Component("csrf"),
			logger.Error(err),
		)
		return errors.Join(ErrHandshakeFailed, err)
	}

	if !resp.OK() {
		h.logger.InfoContext(ctx, "csrf handshake returned non-2xx status",
			logger.Component("csrf"),
			logger.Status(resp.StatusCode),
		)
	}
	if h.tokens != nil {
		if u, err := h.client.URL(h.path); err == nil {
			if _, err := h.tokens(u); err != nil {
				h.logger.WarnContext(ctx, "csrf handshake did not set the token cookie",
					logger.Component("csrf"),
					logger.Status(resp.StatusCode),
				)
			}
		}
	}

	h.ready.Store(true)
	if h.onReady != nil {
		h.onReady()
	}
	return nil
}
