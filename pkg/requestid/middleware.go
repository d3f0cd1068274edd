package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the request id in both directions
const Header = "X-Request-ID"

const maxLength = 128

var idFormat = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Valid reports whether id may be forwarded as is: 1 to 128 characters
// of letters, digits, '-' and '_'.
func Valid(id string) bool {
	return id != "" && len(id) <= maxLength && idFormat.MatchString(id)
}

// Middleware keeps a valid incoming Header or replaces it with a new UUID,
// echoes it on the response and stores it in the request context.
// The fake accounts back-end uses it to mirror a real server.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Valid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}
