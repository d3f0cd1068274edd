// Package auth keeps the client side of a cookie-authenticated session with
// the danmaku accounts back-end.
//
// A Store holds who the current visitor is, whether an operation is in
// flight, the last user-facing error and whether the CSRF handshake has
// completed. It talks to the back-end through a Client (normally an
// *apiclient.Client) and remembers the user across restarts through a
// *session.Persistence.
//
// # Usage
//
//	store := auth.New(api, persistence, auth.WithLogger(log))
//
//	res := store.Login(ctx, auth.Credentials{
//		Username:   "alice",
//		Password:   "secret",
//		RememberMe: true,
//	})
//	if !res.Success {
//		fmt.Println(res.Error)
//		if res.AttemptsLeft != nil {
//			fmt.Println("attempts left:", *res.AttemptsLeft)
//		}
//	}
//
// # Session lifecycle
//
// New seeds the store from the persisted snapshot, so a remembered user is
// authenticated before any request is made. Reconcile then runs once at
// startup: an anonymous store asks the server via FetchUser, an
// authenticated one is re-validated locally.
//
// Every failed Login or Register, every Logout and every FetchUser that does
// not yield a valid user clears both the in-memory user and the snapshot.
// Operation results never carry transport errors; failures are reported as
// display-ready messages in Result.Error.
//
// # Concurrency
//
// Store is safe for concurrent use. Operations that change the session run
// one at a time in arrival order and concurrent FetchUser calls share a
// single request. Readers such as State and User return copies.
//
// # Phases
//
// State.Phase moves between PhaseAnonymous, PhaseAuthenticating,
// PhaseAuthenticated and PhaseError on a statemachine.Machine;
// PhaseError is left again before the failing operation returns. Entering
// PhaseAuthenticated is guarded: a user without a username is refused and
// the operation fails as if no user had been sent.
package auth
