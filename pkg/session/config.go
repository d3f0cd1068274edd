package session

import "time"

// Storage keys. They carry no version: renaming one drops every remembered
// session, which is bounded by RememberTTL.
const (
	UserKey   = "auth_user"
	ExpiryKey = "auth_expiry"
)

// ExpiryLayout is the ISO-8601 layout used for ExpiryKey.
const ExpiryLayout = "2006-01-02T15:04:05.000Z"

// Config holds persistence configuration
type Config struct {
	// DefaultTTL is the snapshot lifetime without "remember me"
	DefaultTTL time.Duration `env:"SESSION_DEFAULT_TTL" envDefault:"24h"`

	// RememberTTL is the snapshot lifetime with "remember me"
	RememberTTL time.Duration `env:"SESSION_REMEMBER_TTL" envDefault:"720h"`
}

// DefaultConfig returns default persistence configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL:  24 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}
}

// TTL returns the snapshot lifetime for the given remember flag
func (c Config) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return c.RememberTTL
	}
	return c.DefaultTTL
}
