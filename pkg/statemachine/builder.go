package statemachine

import "fmt"

// Builder assembles a Machine with a fluent API. Errors are collected and
// reported by Build, so a table can be written as a single chain.
type Builder[S, E comparable] struct {
	machine *Machine[S, E]
	err     error

	from, to          S
	event             E
	hasFrom, hasEvent bool
	hasTo             bool
	guards            []Guard[S, E]
	actions           []Action[S, E]
}

// NewBuilder starts a machine in the initial state
func NewBuilder[S, E comparable](initial S) *Builder[S, E] {
	return &Builder[S, E]{
		machine: &Machine[S, E]{
			current:     initial,
			transitions: make(map[S]map[E][]transition[S, E]),
		},
	}
}

// From starts a new transition. A transition in progress and not yet added is discarded.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.reset()
	b.from, b.hasFrom = state, true
	return b
}

// When sets the triggering event
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.event, b.hasEvent = event, true
	return b
}

// To sets the target state
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.to, b.hasTo = state, true
	return b
}

// WithGuard adds a guard; nil guards are ignored
func (b *Builder[S, E]) WithGuard(guard Guard[S, E]) *Builder[S, E] {
	if guard != nil {
		b.guards = append(b.guards, guard)
	}
	return b
}

// WithAction adds an action; nil actions are ignored
func (b *Builder[S, E]) WithAction(action Action[S, E]) *Builder[S, E] {
	if action != nil {
		b.actions = append(b.actions, action)
	}
	return b
}

// Add registers the transition in progress
func (b *Builder[S, E]) Add() *Builder[S, E] {
	defer b.reset()

	if b.err != nil {
		return b
	}
	if !b.hasFrom || !b.hasEvent || !b.hasTo {
		b.err = fmt.Errorf("%w: from=%t event=%t to=%t", ErrIncompleteTransition, b.hasFrom, b.hasEvent, b.hasTo)
		return b
	}

	byEvent, ok := b.machine.transitions[b.from]
	if !ok {
		byEvent = make(map[E][]transition[S, E])
		b.machine.transitions[b.from] = byEvent
	}
	byEvent[b.event] = append(byEvent[b.event], transition[S, E]{
		to:      b.to,
		guards:  b.guards,
		actions: b.actions,
	})
	return b
}

// Build returns the machine or the first error recorded while building
func (b *Builder[S, E]) Build() (*Machine[S, E], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.machine, nil
}

// MustBuild is Build for static tables; it panics on error
func (b *Builder[S, E]) MustBuild() *Machine[S, E] {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

func (b *Builder[S, E]) reset() {
	var (
		zeroS S
		zeroE E
	)
	b.from, b.to, b.event = zeroS, zeroS, zeroE
	b.hasFrom, b.hasEvent, b.hasTo = false, false, false
	b.guards, b.actions = nil, nil
}
