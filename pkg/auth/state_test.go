package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmaku-system/webclient/pkg/statemachine"
)

func TestPhaseMachine(t *testing.T) {
	t.Parallel()

	alice := &User{Username: "alice"}
	blank := &User{Username: " "}

	tests := []struct {
		from    Phase
		ev      event
		data    any
		want    Phase
		wantErr error
	}{
		{PhaseAnonymous, eventBegin, nil, PhaseAuthenticating, nil},
		{PhaseAnonymous, eventFailed, nil, PhaseError, nil},
		{PhaseAnonymous, eventCleared, nil, PhaseAnonymous, nil},
		{PhaseAnonymous, eventRestored, alice, PhaseAuthenticated, nil},
		{PhaseAnonymous, eventRestored, blank, PhaseAnonymous, statemachine.ErrTransitionRejected},
		{PhaseAnonymous, eventAuthenticated, alice, PhaseAnonymous, statemachine.ErrNoTransition},
		{PhaseAuthenticating, eventAuthenticated, alice, PhaseAuthenticated, nil},
		{PhaseAuthenticating, eventAuthenticated, blank, PhaseAuthenticating, statemachine.ErrTransitionRejected},
		{PhaseAuthenticating, eventAuthenticated, nil, PhaseAuthenticating, statemachine.ErrTransitionRejected},
		{PhaseAuthenticating, eventFailed, nil, PhaseError, nil},
		{PhaseAuthenticating, eventBegin, nil, PhaseAuthenticating, statemachine.ErrNoTransition},
		{PhaseAuthenticated, eventBegin, nil, PhaseAuthenticating, nil},
		{PhaseAuthenticated, eventAuthenticated, alice, PhaseAuthenticated, nil},
		{PhaseAuthenticated, eventCleared, nil, PhaseAnonymous, nil},
		{PhaseError, eventAuthenticated, alice, PhaseAuthenticated, nil},
		{PhaseError, eventCleared, nil, PhaseAnonymous, nil},
		{PhaseError, eventBegin, nil, PhaseError, statemachine.ErrNoTransition},
		{PhaseError, eventFailed, nil, PhaseError, statemachine.ErrNoTransition},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			t.Parallel()

			m := newPhaseMachine(tt.from, log)
			err := m.Fire(context.Background(), tt.ev, tt.data)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestHasUsername(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.True(t, hasUsername(ctx, PhaseAuthenticating, eventAuthenticated, &User{Username: "alice"}))
	assert.False(t, hasUsername(ctx, PhaseAuthenticating, eventAuthenticated, &User{}))
	assert.False(t, hasUsername(ctx, PhaseAuthenticating, eventAuthenticated, (*User)(nil)))
	assert.False(t, hasUsername(ctx, PhaseAuthenticating, eventAuthenticated, "alice"))
}
