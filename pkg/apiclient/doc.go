// Package apiclient is the HTTP transport used by the session store.
//
// Client resolves relative paths such as "login/" against the accounts base
// URL, encodes request bodies as JSON and applies a per-request deadline
// (30s by default, WithRequestTimeout per call). Do returns a Response for
// every HTTP status, including 4xx and 5xx, so callers can inspect error
// envelopes. An error is returned only when the request could not be built
// or when no response reached the client; the latter wraps ErrConnectivity
// or ErrTimeout, see IsNoResponse.
//
// Cookies, anti-forgery headers and request ids are handled by the
// http.Client passed with WithHTTPClient: its Jar and its transport chain
// (requestid.Transport, csrf.Transport, base transport).
package apiclient
