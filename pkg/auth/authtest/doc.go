// Package authtest runs an in-process fake of the danmaku accounts back-end
// for tests.
//
// The fake keeps users, sessions and login attempts in memory and answers
// with the same status codes and bodies as the real service:
//
//	srv := authtest.NewServer()
//	defer srv.Close()
//	srv.AddUser(authtest.Account{Username: "alice", Email: "alice@example.com"}, "correct horse")
//
//	api, _ := apiclient.New(srv.URL())
//
// Mutating requests must carry the X-CSRFToken header matching the csrftoken
// cookie issued by GET csrf/. Five failed logins from one client address lock
// further attempts out with 429. Override replaces a single endpoint for
// fault injection.
package authtest
