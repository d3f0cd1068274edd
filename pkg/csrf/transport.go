package csrf

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danmaku-system/webclient/pkg/cookie"
	"github.com/danmaku-system/webclient/pkg/logger"
)

// TokenSource returns the anti-forgery token for a request URL
type TokenSource func(u *url.URL) (string, error)

// FromJar reads CookieName from the jar
func FromJar(jar http.CookieJar) TokenSource {
	return func(u *url.URL) (string, error) {
		token, err := cookie.Value(jar, u, CookieName)
		if err != nil || token == "" {
			return "", ErrTokenNotFound
		}
		return token, nil
	}
}

// Transport attaches HeaderName to POST, PUT, PATCH and DELETE requests.
//
// When no token is available the request is sent without the header and a
// warning is logged. The server enforces the token; Transport never blocks a
// request.
type Transport struct {
	Base   http.RoundTripper
	Tokens TokenSource
	Logger *slog.Logger
}

// NewTransport wraps base, falling back to http.DefaultTransport
func NewTransport(base http.RoundTripper, tokens TokenSource, log *slog.Logger) *Transport {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{Base: base, Tokens: tokens, Logger: log}
}

// RoundTrip adds the CSRF header to mutating requests when a token is known
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !IsMutating(req.Method) || req.Header.Get(HeaderName) != "" {
		return t.base().RoundTrip(req)
	}

	var (
		token string
		err   = ErrTokenNotFound
	)
	if t.Tokens != nil {
		token, err = t.Tokens(req.URL)
	}
	if err != nil {
		if t.Logger != nil {
			t.Logger.WarnContext(req.Context(), "sending mutating request without csrf token",
				logger.Component("csrf"),
				logger.Method(req.Method),
				logger.URL(req.URL.String()),
			)
		}
		return t.base().RoundTrip(req)
	}

	r := req.Clone(req.Context())
	r.Header.Set(HeaderName, token)
	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
