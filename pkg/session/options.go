package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring Persistence
type Option func(*Persistence)

// WithConfig sets the snapshot lifetimes. Non-positive values keep the defaults.
func WithConfig(config Config) Option {
	return func(p *Persistence) {
		if config.DefaultTTL > 0 {
			p.config.DefaultTTL = config.DefaultTTL
		}
		if config.RememberTTL > 0 {
			p.config.RememberTTL = config.RememberTTL
		}
	}
}

// WithSealer encrypts the user entry at rest
func WithSealer(sealer Sealer) Option {
	return func(p *Persistence) {
		p.sealer = sealer
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Persistence) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used for storage failures
func WithLogger(logger *slog.Logger) Option {
	return func(p *Persistence) {
		if logger != nil {
			p.logger = logger
		}
	}
}
