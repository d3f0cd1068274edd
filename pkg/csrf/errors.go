package csrf

import "errors"

var (
	// ErrHandshakeFailed indicates that the handshake request got no response
	ErrHandshakeFailed = errors.New("csrf.handshake_failed")

	// ErrTokenNotFound indicates that the cookie jar holds no anti-forgery token
	ErrTokenNotFound = errors.New("csrf.token_not_found")
)
