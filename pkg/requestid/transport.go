package requestid

import (
	"net/http"

	"github.com/google/uuid"
)

// Transport sets Header on every outgoing request that does not carry one.
// The id comes from the request context, or is generated.
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base, falling back to http.DefaultTransport
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip stamps the request id and delegates to Base
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(Header) != "" {
		return t.base().RoundTrip(req)
	}

	id := FromContext(req.Context())
	if !Valid(id) {
		id = uuid.NewString()
	}

	r := req.Clone(req.Context())
	r.Header.Set(Header, id)
	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
