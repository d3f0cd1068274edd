package csrf

import (
	"log/slog"
	"time"
)

// Option configures a Handshake
type Option func(*Handshake)

// WithTimeout bounds the handshake request
func WithTimeout(timeout time.Duration) Option {
	return func(h *Handshake) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithOnReady registers a hook called once the handshake got a response
func WithOnReady(fn func()) Option {
	return func(h *Handshake) {
		h.onReady = fn
	}
}

// WithTokenSource lets the handshake check that the cookie was actually set
func WithTokenSource(tokens TokenSource) Option {
	return func(h *Handshake) {
		h.tokens = tokens
	}
}

// WithLogger sets the handshake logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handshake) {
		if logger != nil {
			h.logger = logger
		}
	}
}
