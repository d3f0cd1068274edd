package cookie

import "errors"

var (
	ErrCookieNotFound = errors.New("cookie.not_found")
	ErrInvalidFormat  = errors.New("cookie.invalid_format")
	ErrPersistFailed  = errors.New("cookie.persist_failed")
)
