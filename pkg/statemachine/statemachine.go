package statemachine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Guard decides whether a transition may proceed for the given data
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs before the state changes. Returning an error aborts the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

type transition[S, E comparable] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Machine is a concurrency-safe state machine built by Builder
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[S]map[E][]transition[S, E]
}

// Current returns the current state
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire moves the machine along the first transition for event whose guards
// accept data. The state is unchanged when an error is returned.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	t, err := m.match(ctx, from, event, data)
	if err != nil {
		return err
	}

	for _, action := range t.actions {
		if err := action(ctx, from, t.to, event, data); err != nil {
			return errors.Join(fmt.Errorf("%w: %v on %v", ErrActionFailed, from, event), err)
		}
	}

	m.current = t.to
	return nil
}

// CanFire reports whether Fire would find an accepted transition.
// Actions are not run.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.match(ctx, m.current, event, data)
	return err == nil
}

// match must be called with m.mu held
func (m *Machine[S, E]) match(ctx context.Context, from S, event E, data any) (*transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %v on %v", ErrNoTransition, from, event)
	}

	for i := range candidates {
		if accepted(ctx, candidates[i].guards, from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %v on %v", ErrTransitionRejected, from, event)
}

func accepted[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, guard := range guards {
		if !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
