// Package requestid propagates X-Request-ID between the client and the
// accounts back-end.
//
// Transport stamps outgoing requests with the id stored in the request
// context (see WithContext and Ensure) or a fresh UUID. Middleware does the
// same on the server side and is used by the fake back-end in tests.
// LoggerExtractor plugs the id into pkg/logger so every record logged with a
// request context carries it.
package requestid
