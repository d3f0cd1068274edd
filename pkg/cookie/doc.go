// Package cookie provides the client-side cookie store.
//
// Jar wraps net/http/cookiejar with the golang.org/x/net/publicsuffix list
// and optionally mirrors its contents into a session.Storage entry
// (StorageKey, "auth_cookies"). This keeps the server session cookie and the
// anti-forgery cookie across process restarts the way a browser profile
// would. Persistence is explicit: call Flush before exiting.
//
//	jar, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
//	if err != nil {
//	    return err
//	}
//	defer jar.Flush(ctx)
//	httpClient := &http.Client{Jar: jar}
//
// Value looks up a single cookie that would be sent to a URL and returns
// ErrCookieNotFound when it is absent.
package cookie
