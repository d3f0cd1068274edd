package statemachine

import "errors"

var (
	// ErrNoTransition indicates that no transition is defined for the state and event
	ErrNoTransition = errors.New("statemachine.no_transition")

	// ErrTransitionRejected indicates that every matching transition was vetoed by a guard
	ErrTransitionRejected = errors.New("statemachine.transition_rejected")

	// ErrActionFailed indicates that a transition action returned an error
	ErrActionFailed = errors.New("statemachine.action_failed")

	// ErrIncompleteTransition indicates a builder transition without a source, event or target
	ErrIncompleteTransition = errors.New("statemachine.incomplete_transition")
)
