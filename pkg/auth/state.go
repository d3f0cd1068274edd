package auth

import (
	"context"
	"log/slog"

	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/statemachine"
)

// Phase is the coarse session state
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseError          Phase = "error"
)

func (p Phase) String() string { return string(p) }

// State is a snapshot of the in-memory session
type State struct {
	User            *User
	IsAuthenticated bool
	Loading         bool
	Error           string
	CSRFReady       bool
	Phase           Phase
}

type event string

const (
	eventBegin         event = "begin"
	eventAuthenticated event = "authenticated"
	eventRestored      event = "restored"
	eventFailed        event = "failed"
	eventCleared       event = "cleared"
)

type phaseMachine = statemachine.Machine[Phase, event]

// phaseTransitions lists the allowed phase changes. PhaseError is transient:
// every operation that enters it resolves it before releasing the store.
var phaseTransitions = []struct {
	from Phase
	ev   event
	to   Phase
}{
	{PhaseAnonymous, eventBegin, PhaseAuthenticating},
	{PhaseAnonymous, eventRestored, PhaseAuthenticated},
	{PhaseAnonymous, eventFailed, PhaseError},
	{PhaseAnonymous, eventCleared, PhaseAnonymous},

	{PhaseAuthenticating, eventAuthenticated, PhaseAuthenticated},
	{PhaseAuthenticating, eventFailed, PhaseError},
	{PhaseAuthenticating, eventCleared, PhaseAnonymous},

	{PhaseAuthenticated, eventBegin, PhaseAuthenticating},
	{PhaseAuthenticated, eventAuthenticated, PhaseAuthenticated},
	{PhaseAuthenticated, eventFailed, PhaseError},
	{PhaseAuthenticated, eventCleared, PhaseAnonymous},

	{PhaseError, eventAuthenticated, PhaseAuthenticated},
	{PhaseError, eventCleared, PhaseAnonymous},
}

// newPhaseMachine builds the session lifecycle. Entering PhaseAuthenticated
// requires a *User with a non-blank username as event data.
func newPhaseMachine(initial Phase, log *slog.Logger) *phaseMachine {
	logChange := func(ctx context.Context, from, to Phase, ev event, _ any) error {
		if from != to {
			log.DebugContext(ctx, "session phase changed",
				logger.Component("auth"),
				slog.String("from", from.String()),
				logger.Phase(to.String()),
				slog.String("event", string(ev)),
			)
		}
		return nil
	}

	b := statemachine.NewBuilder[Phase, event](initial)
	for _, t := range phaseTransitions {
		b.From(t.from).When(t.ev).To(t.to).WithAction(logChange)
		if t.to == PhaseAuthenticated {
			b.WithGuard(hasUsername)
		}
		b.Add()
	}
	return b.MustBuild()
}

// hasUsername accepts only a user that can be shown and persisted
func hasUsername(_ context.Context, _ Phase, _ event, data any) bool {
	u, _ := data.(*User)
	return u.Valid()
}
