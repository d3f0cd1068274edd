// Package statemachine implements a small finite state machine with guarded
// transitions.
//
// States and events are any comparable types, typically string kinds:
//
//	type Phase string
//	type event string
//
//	m := statemachine.NewBuilder[Phase, event](PhaseAnonymous).
//	    From(PhaseAnonymous).When("begin").To(PhaseAuthenticating).Add().
//	    From(PhaseAuthenticating).When("authenticated").To(PhaseAuthenticated).
//	        WithGuard(hasUsername).Add().
//	    MustBuild()
//
//	if err := m.Fire(ctx, "authenticated", user); err != nil {
//	    // ErrNoTransition or ErrTransitionRejected
//	}
//
// # Guards and actions
//
// A Guard inspects the data passed to Fire and vetoes a transition by
// returning false. Several transitions may share a state and event; the
// first one whose guards all pass is taken. Actions run in order before the
// state changes, and an action error aborts the transition.
//
// Guards and actions run while the machine holds its lock and must not call
// back into the same machine.
package statemachine
