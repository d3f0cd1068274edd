package apiclient

import "errors"

var (
	// ErrInvalidURL indicates a base URL or path that cannot be resolved
	ErrInvalidURL = errors.New("apiclient.invalid_url")

	// ErrEncodeBody indicates a request body that cannot be marshalled to JSON
	ErrEncodeBody = errors.New("apiclient.encode_body_failed")

	// ErrConnectivity indicates that no response reached the client
	ErrConnectivity = errors.New("apiclient.connectivity")

	// ErrTimeout indicates that the request deadline passed before a response arrived
	ErrTimeout = errors.New("apiclient.timeout")
)

// IsNoResponse reports whether err means the server never answered
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrConnectivity) || errors.Is(err, ErrTimeout)
}
