package csrf

import "time"

// Names agreed with the accounts back-end. Both are case-sensitive.
const (
	CookieName = "csrftoken"
	HeaderName = "X-CSRFToken"
)

const (
	DefaultPath    = "csrf/"
	DefaultTimeout = 5 * time.Second
)

// IsMutating reports whether requests with this method carry the token
func IsMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}
