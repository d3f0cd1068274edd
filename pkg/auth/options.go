package auth

import (
	"log/slog"
	"time"
)

// DefaultFetchTimeout bounds the "who am I" request
const DefaultFetchTimeout = 5 * time.Second

// Paths are the account endpoints relative to the API base URL
type Paths struct {
	User                 string
	Login                string
	Register             string
	Logout               string
	Update               string
	CheckUsername        string
	PasswordReset        string
	PasswordResetConfirm string
}

// DefaultPaths returns the endpoints of the accounts back-end
func DefaultPaths() Paths {
	return Paths{
		User:                 "user/",
		Login:                "login/",
		Register:             "register/",
		Logout:               "logout/",
		Update:               "update/",
		CheckUsername:        "check-username/",
		PasswordReset:        "password-reset/",
		PasswordResetConfirm: "password-reset/confirm/",
	}
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger; nil is ignored
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFetchTimeout overrides DefaultFetchTimeout
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.fetchTimeout = timeout
		}
	}
}

