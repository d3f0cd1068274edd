package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/danmaku-system/webclient/pkg/apiclient"
	"github.com/danmaku-system/webclient/pkg/apierr"
	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/session"
)

// Client sends requests to the accounts API
type Client interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
}

// Store owns the in-memory session and decides when it is persisted.
//
// Operations that change the session run one at a time; a second Login
// started while the first is in flight waits for it, so the final state is
// always that of the operation that completed last. Concurrent FetchUser
// calls share a single request.
type Store struct {
	client       Client
	persistence  *session.Persistence
	logger       *slog.Logger
	fetchTimeout time.Duration
	paths        Paths

	mu         sync.RWMutex
	user       *User
	authed     bool
	loading    bool
	errMsg     string
	csrfReady  bool
	rememberMe bool
	phases     *phaseMachine

	ops     *semaphore.Weighted
	fetches singleflight.Group
}

// New creates a store and seeds it from the persisted snapshot.
// A nil persistence keeps the session in memory only.
func New(client Client, persistence *session.Persistence, opts ...Option) *Store {
	s := &Store{
		client:       client,
		persistence:  persistence,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		fetchTimeout: DefaultFetchTimeout,
		paths:        DefaultPaths(),
		ops:          semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.phases = newPhaseMachine(PhaseAnonymous, s.logger)
	if s.persistence == nil {
		s.persistence = session.New(nil)
	}

	s.hydrate(context.Background())
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	snap, err := s.persistence.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrStorageUnavailable) {
			s.logger.WarnContext(ctx, "session storage unavailable, starting anonymous",
				logger.Component("auth"),
				logger.Error(err),
			)
		}
		return
	}

	var u User
	if err := snap.Decode(&u); err != nil {
		s.persistence.Clear(ctx)
		return
	}
	if err := s.fire(ctx, eventRestored, &u); err != nil {
		s.persistence.Clear(ctx)
		return
	}

	s.user = &u
	s.authed = true
	s.rememberMe = snap.RememberMe
	s.logger.DebugContext(ctx, "session restored",
		logger.Component("auth"),
		logger.Username(u.Username),
		slog.Time("expires_at", snap.ExpiresAt),
	)
}

// State returns a copy of the current session state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		User:            s.user.Clone(),
		IsAuthenticated: s.authed,
		Loading:         s.loading,
		Error:           s.errMsg,
		CSRFReady:       s.csrfReady,
		Phase:           s.phases.Current(),
	}
}

// User returns a copy of the current user, or nil
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

// IsAdmin reports an authenticated staff user
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed && s.user != nil && s.user.IsStaff
}

// FullName returns the display name of the current user, or "" when anonymous
func (s *Store) FullName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.FullName()
}

// CSRFReady reports whether the CSRF handshake has completed
func (s *Store) CSRFReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrfReady
}

// SetCSRFReady records the outcome of the CSRF handshake
func (s *Store) SetCSRFReady(ready bool) {
	s.mu.Lock()
	s.csrfReady = ready
	s.mu.Unlock()
}

// FetchUser asks the server who the current visitor is. A valid user is
// stored and persisted; anything else, including a transport failure,
// clears the session. The result reports whether the visitor is authenticated.
func (s *Store) FetchUser(ctx context.Context) bool {
	v, _, _ := s.fetches.Do("fetch_user", func() (any, error) {
		return s.fetchUser(ctx), nil
	})
	ok, _ := v.(bool)
	return ok
}

func (s *Store) fetchUser(ctx context.Context) bool {
	release, err := s.acquire(ctx)
	if err != nil {
		return false
	}
	defer release()

	s.transition(ctx, eventBegin)

	resp, err := s.client.Do(ctx, http.MethodGet, s.paths.User, nil, apiclient.WithRequestTimeout(s.fetchTimeout))
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "failed to fetch current user",
			logger.Operation("fetch_user"),
			logger.Error(err),
		)
	case !resp.OK():
		s.logger.InfoContext(ctx, "current user not authenticated",
			logger.Operation("fetch_user"),
			logger.Status(resp.StatusCode),
		)
	default:
		if u := userFromFetch(resp.Body); u != nil && s.setAuthenticated(ctx, u, false) {
			return true
		}
		s.logger.WarnContext(ctx, "who-am-i response carries no valid user",
			logger.Operation("fetch_user"),
			logger.Status(resp.StatusCode),
		)
	}

	s.clearUserData(ctx)
	return false
}

// Login authenticates with the given credentials. The snapshot lifetime
// follows Credentials.RememberMe.
//
// When ctx is done before the login starts, the connectivity message is
// reported and set as the store error; the session is left as it was,
// since no request reached the server.
func (s *Store) Login(ctx context.Context, creds Credentials) LoginResult {
	release, err := s.acquire(ctx)
	if err != nil {
		return LoginResult{Result: s.abandon()}
	}
	defer release()
	defer s.beginLoading()()

	s.transition(ctx, eventBegin)

	creds.Username = normalizeUsername(creds.Username)
	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.Login, creds)
	if err == nil {
		if u, msg := successUser(resp); u != nil && s.setAuthenticated(ctx, u, creds.RememberMe) {
			s.logger.InfoContext(ctx, "logged in",
				logger.Operation("login"),
				logger.Username(u.Username),
				slog.Bool("remember_me", creds.RememberMe),
			)
			return LoginResult{Result: Result{Success: true, User: u.Clone(), Message: msg}}
		}
	}

	var res LoginResult
	switch {
	case err != nil:
		res.Error = apierr.MsgConnectivity
	case resp.StatusCode == http.StatusTooManyRequests:
		res.Lockout = true
		res.Error = failureMessage(resp, apierr.MsgLockout)
	default:
		res.Error = failureMessage(resp, apierr.MsgLoginFailed)
		if n, ok := apierr.Parse(resp.Body).AttemptsLeft(); ok {
			res.AttemptsLeft = &n
		}
	}

	s.logger.InfoContext(ctx, "login failed",
		logger.Operation("login"),
		logger.Username(creds.Username),
		slog.Bool("lockout", res.Lockout),
		logger.Error(err),
	)
	s.fail(ctx, res.Error)
	s.clearUserData(ctx)
	return res
}

// Register creates an account; the server signs the new user in.
// A done ctx is handled as in Login.
func (s *Store) Register(ctx context.Context, reg Registration) Result {
	release, err := s.acquire(ctx)
	if err != nil {
		return s.abandon()
	}
	defer release()
	defer s.beginLoading()()

	s.transition(ctx, eventBegin)

	reg.Username = normalizeUsername(reg.Username)
	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.Register, reg)
	if err == nil {
		if u, msg := successUser(resp); u != nil && s.setAuthenticated(ctx, u, false) {
			s.logger.InfoContext(ctx, "registered",
				logger.Operation("register"),
				logger.Username(u.Username),
			)
			return Result{Success: true, User: u.Clone(), Message: msg}
		}
	}

	res := Result{Error: apierr.MsgConnectivity}
	if err == nil {
		res.Error = failureMessage(resp, apierr.MsgRegisterFailed)
	}

	s.logger.InfoContext(ctx, "registration failed",
		logger.Operation("register"),
		logger.Username(reg.Username),
		logger.Error(err),
	)
	s.fail(ctx, res.Error)
	s.clearUserData(ctx)
	return res
}

// Logout forgets the session locally whatever the server answers.
// The result is always successful.
func (s *Store) Logout(ctx context.Context) Result {
	release := s.acquireAlways(ctx)
	defer release()
	defer s.beginLoading()()

	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.Logout, nil)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, apierr.MsgLogoutFailed,
			logger.Operation("logout"),
			logger.Error(err),
		)
	case !resp.OK():
		s.logger.WarnContext(ctx, apierr.MsgLogoutFailed,
			logger.Operation("logout"),
			logger.Status(resp.StatusCode),
		)
	}

	s.clearUserData(ctx)
	return Result{Success: true}
}

// UpdateProfile sends a partial profile. On success the user is replaced and,
// when authenticated, re-persisted with the current remember flag. Failures
// set the error and leave authentication untouched, as does a done ctx.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) Result {
	release, err := s.acquire(ctx)
	if err != nil {
		return s.abandon()
	}
	defer release()
	defer s.beginLoading()()

	resp, err := s.client.Do(ctx, http.MethodPatch, s.paths.Update, update)
	if err != nil {
		s.fail(ctx, apierr.MsgConnectivity)
		s.settle(ctx)
		return Result{Error: apierr.MsgConnectivity}
	}

	if u, msg := successUser(resp); u != nil && s.applyProfile(ctx, u) {
		return Result{Success: true, User: u.Clone(), Message: msg}
	}

	res := Result{Error: failureMessage(resp, apierr.MsgUpdateFailed)}
	s.fail(ctx, res.Error)
	if resp.OK() && responseStatus(resp) == statusSuccess {
		// the server claims success but sent no usable user
		s.clearUserData(ctx)
	} else {
		s.settle(ctx)
	}
	return res
}

// applyProfile adopts an updated user, re-persisting an authenticated
// session. It reports false when the user is rejected.
func (s *Store) applyProfile(ctx context.Context, u *User) bool {
	s.mu.Lock()
	authed, remember := s.authed, s.rememberMe
	if authed {
		if err := s.fire(ctx, eventAuthenticated, u); err != nil {
			s.mu.Unlock()
			return false
		}
	} else if !hasUsername(ctx, s.phases.Current(), eventAuthenticated, u) {
		s.mu.Unlock()
		return false
	}
	s.user = u
	s.mu.Unlock()

	if authed {
		s.save(ctx, u, remember)
	}
	return true
}

// ClearUserData forgets the user and deletes the persisted snapshot
func (s *Store) ClearUserData(ctx context.Context) {
	release := s.acquireAlways(ctx)
	defer release()
	s.clearUserData(ctx)
}

// Reconcile runs at startup after the handshake: a restored session is
// re-validated locally, otherwise the server is asked via FetchUser.
func (s *Store) Reconcile(ctx context.Context) bool {
	if !s.IsAuthenticated() {
		s.FetchUser(ctx)
	}

	s.mu.RLock()
	invalid := s.authed && !s.phases.CanFire(ctx, eventAuthenticated, s.user)
	s.mu.RUnlock()
	if invalid {
		s.logger.WarnContext(ctx, "authenticated session without a valid user, clearing",
			logger.Component("auth"),
		)
		s.ClearUserData(ctx)
	}

	return s.IsAuthenticated()
}

// abandon reports an operation that gave up before it started
func (s *Store) abandon() Result {
	s.mu.Lock()
	s.errMsg = apierr.MsgConnectivity
	s.mu.Unlock()
	return Result{Error: apierr.MsgConnectivity}
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	err := ctx.Err()
	if err == nil {
		err = s.ops.Acquire(ctx, 1)
	}
	if err != nil {
		s.logger.DebugContext(ctx, "gave up waiting for a running session operation",
			logger.Component("auth"),
			logger.Error(err),
		)
		return nil, err
	}
	return func() { s.ops.Release(1) }, nil
}

// acquireAlways waits for running operations even if ctx is done.
// Every operation holding the semaphore is bounded by its request timeout.
func (s *Store) acquireAlways(ctx context.Context) func() {
	_ = s.ops.Acquire(context.WithoutCancel(ctx), 1)
	return func() { s.ops.Release(1) }
}

// beginLoading sets the loading flag and clears the error.
// The returned func resets loading; defer it.
func (s *Store) beginLoading() func() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}
}

func (s *Store) transition(ctx context.Context, ev event) {
	s.mu.Lock()
	_ = s.fire(ctx, ev, nil)
	s.mu.Unlock()
}

// fire applies a phase transition; s.mu must be held except during New.
// Rejected transitions are logged and leave the phase unchanged.
func (s *Store) fire(ctx context.Context, ev event, data any) error {
	if err := s.phases.Fire(ctx, ev, data); err != nil {
		s.logger.WarnContext(ctx, "ignoring session phase transition",
			logger.Component("auth"),
			logger.Phase(s.phases.Current().String()),
			slog.String("event", string(ev)),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// setAuthenticated stores and persists u once the phase machine accepts it.
// It reports false, changing nothing, for a user without a username.
func (s *Store) setAuthenticated(ctx context.Context, u *User, rememberMe bool) bool {
	s.mu.Lock()
	if err := s.fire(ctx, eventAuthenticated, u); err != nil {
		s.mu.Unlock()
		return false
	}
	s.user = u
	s.authed = true
	s.rememberMe = rememberMe
	s.mu.Unlock()

	s.save(ctx, u, rememberMe)
	return true
}

func (s *Store) save(ctx context.Context, u *User, rememberMe bool) {
	if err := s.persistence.Save(context.WithoutCancel(ctx), u, rememberMe); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session",
			logger.Component("auth"),
			logger.Username(u.Username),
			logger.Error(err),
		)
	}
}

func (s *Store) clearUserData(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.authed = false
	s.rememberMe = false
	_ = s.fire(ctx, eventCleared, nil)
	s.mu.Unlock()

	s.persistence.Clear(context.WithoutCancel(ctx))
}

// fail records a user-facing error and enters PhaseError
func (s *Store) fail(ctx context.Context, msg string) {
	s.mu.Lock()
	s.errMsg = msg
	_ = s.fire(ctx, eventFailed, nil)
	s.mu.Unlock()
}

// settle leaves PhaseError for the phase matching the authentication flag
func (s *Store) settle(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phases.Current() != PhaseError {
		return
	}
	if s.authed {
		_ = s.fire(ctx, eventAuthenticated, s.user)
	} else {
		_ = s.fire(ctx, eventCleared, nil)
	}
}

const statusSuccess = "success"

type envelope struct {
	Status  string          `json:"status"`
	User    json.RawMessage `json:"user"`
	Message string          `json:"message"`
	Details []string        `json:"details"`
}

func decodeEnvelope(resp *apiclient.Response) envelope {
	var env envelope
	_ = resp.Decode(&env)
	return env
}

func responseStatus(resp *apiclient.Response) string {
	return decodeEnvelope(resp).Status
}

// successUser returns the user of a 2xx {"status":"success","user":{...}} body.
// The user is nil for any other response or when it fails User.Valid.
func successUser(resp *apiclient.Response) (*User, string) {
	if !resp.OK() {
		return nil, ""
	}
	env := decodeEnvelope(resp)
	if env.Status != statusSuccess {
		return nil, ""
	}
	return decodeUser(env.User), env.Message
}

// userFromFetch accepts a bare user or {"user":..., "authenticated":...}
func userFromFetch(body []byte) *User {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	raw, wrapped := fields["user"]
	if !wrapped {
		return decodeUser(body)
	}
	if flag, ok := fields["authenticated"]; ok {
		var authed bool
		if err := json.Unmarshal(flag, &authed); err != nil || !authed {
			return nil
		}
	}
	return decodeUser(raw)
}

// failureMessage renders the error envelope of a response that did arrive.
// Empty bodies and 2xx bodies without an error key use the fallback.
func failureMessage(resp *apiclient.Response, fallback string) string {
	env := apierr.Parse(resp.Body)
	switch env.Kind {
	case apierr.KindNone:
		return fallback
	case apierr.KindBare:
		if resp.OK() {
			return fallback
		}
	}
	return env.Message(fallback)
}
