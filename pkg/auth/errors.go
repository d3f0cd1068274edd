package auth

import "errors"

var (
	// ErrUsernameCheckFailed indicates that the availability check got no usable answer
	ErrUsernameCheckFailed = errors.New("auth.username_check_failed")
)
