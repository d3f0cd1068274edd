package webclient

import (
	"log/slog"
	"net/http"

	"github.com/danmaku-system/webclient/pkg/session"
)

type options struct {
	logger    *slog.Logger
	storage   session.Storage
	transport http.RoundTripper
}

// Option configures New
type Option func(*options)

// WithLogger replaces the logger built from Config.Log
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStorage uses storage instead of the configured StorageDriver.
// The caller keeps ownership; Close does not close it.
func WithStorage(storage session.Storage) Option {
	return func(o *options) {
		if storage != nil {
			o.storage = storage
		}
	}
}

// WithTransport sets the innermost round tripper, http.DefaultTransport by default
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		if rt != nil {
			o.transport = rt
		}
	}
}
