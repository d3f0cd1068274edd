// Package csrf implements the anti-forgery handshake and the request
// decorator that attaches the token.
//
// Handshake.Bootstrap sends one GET to the handshake endpoint ("csrf/") with
// a short deadline. The server sets the "csrftoken" cookie as a side effect;
// the cookie jar of the API client stores it. Any response marks the
// handshake ready and fires the WithOnReady hook. A transport failure is
// returned to the caller, who carries on with startup regardless.
//
// Transport is an http.RoundTripper that copies the cookie into the
// "X-CSRFToken" header of POST, PUT, PATCH and DELETE requests. A missing
// token does not stop the request: it goes out without the header and the
// server rejects it if it must.
//
//	jar, _ := cookie.NewJar(ctx)
//	rt := csrf.NewTransport(http.DefaultTransport, csrf.FromJar(jar), log)
//	httpClient := &http.Client{Jar: jar, Transport: requestid.NewTransport(rt)}
package csrf
