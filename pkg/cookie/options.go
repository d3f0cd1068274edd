package cookie

import (
	"log/slog"
	"time"

	"github.com/danmaku-system/webclient/pkg/session"
)

// StorageKey is the storage entry holding persisted cookies
const StorageKey = "auth_cookies"

// Option configures a Jar
type Option func(*Jar)

// WithStorage persists cookies in the given storage
func WithStorage(storage session.Storage) Option {
	return func(j *Jar) {
		j.storage = storage
	}
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(j *Jar) {
		if now != nil {
			j.now = now
		}
	}
}

// WithLogger sets the jar logger
func WithLogger(logger *slog.Logger) Option {
	return func(j *Jar) {
		if logger != nil {
			j.logger = logger
		}
	}
}
