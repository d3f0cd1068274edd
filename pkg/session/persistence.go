package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/danmaku-system/webclient/pkg/logger"
)

// Persistence reads, writes and invalidates the remembered session
type Persistence struct {
	storage Storage
	config  Config
	sealer  Sealer
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a persistence layer on top of the given storage
func New(storage Storage, opts ...Option) *Persistence {
	p := &Persistence{
		storage: storage,
		config:  DefaultConfig(),
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.storage == nil {
		p.storage = NewMemoryStorage(0)
	}

	return p
}

// Save persists the user with an expiry of RememberTTL or DefaultTTL
func (p *Persistence) Save(ctx context.Context, user any, rememberMe bool) error {
	data, err := json.Marshal(user)
	if err != nil {
		return errors.Join(ErrEncodeUser, err)
	}

	if p.sealer != nil {
		data, err = p.sealer.Seal(data)
		if err != nil {
			return errors.Join(ErrEncodeUser, err)
		}
	}

	ttl := p.config.TTL(rememberMe)
	expiresAt := p.now().Add(ttl).UTC()

	if err := p.storage.Set(ctx, ExpiryKey, []byte(expiresAt.Format(ExpiryLayout)), ttl); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if err := p.storage.Set(ctx, UserKey, data, ttl); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}

	p.logger.DebugContext(ctx, "session snapshot saved",
		logger.Component("session"),
		slog.Time("expires_at", expiresAt),
		slog.Bool("remember_me", rememberMe),
	)
	return nil
}

// Load returns the persisted snapshot if it is still valid.
// Expired and invalid snapshots are deleted before the error is returned.
func (p *Persistence) Load(ctx context.Context) (*Snapshot, error) {
	rawExpiry, err := p.storage.Get(ctx, ExpiryKey)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	if rawExpiry == nil {
		return nil, ErrSnapshotNotFound
	}

	now := p.now()
	expiresAt, err := time.Parse(time.RFC3339, strings.TrimSpace(string(rawExpiry)))
	if err != nil {
		p.Clear(ctx)
		return nil, errors.Join(ErrSnapshotInvalid, err)
	}
	snap := &Snapshot{ExpiresAt: expiresAt, RememberMe: expiresAt.Sub(now) > p.config.DefaultTTL}
	if snap.IsExpired(now) {
		p.Clear(ctx)
		return nil, ErrSnapshotExpired
	}

	data, err := p.storage.Get(ctx, UserKey)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	if data == nil {
		p.Clear(ctx)
		return nil, ErrSnapshotInvalid
	}

	if p.sealer != nil {
		data, err = p.sealer.Open(data)
		if err != nil {
			p.Clear(ctx)
			return nil, errors.Join(ErrSnapshotInvalid, err)
		}
	}

	var probe struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		p.Clear(ctx)
		return nil, errors.Join(ErrSnapshotInvalid, err)
	}
	if strings.TrimSpace(probe.Username) == "" {
		p.Clear(ctx)
		return nil, ErrSnapshotInvalid
	}

	snap.User = json.RawMessage(data)
	snap.Username = probe.Username
	return snap, nil
}

// Clear deletes both entries. Failures are logged, never returned.
func (p *Persistence) Clear(ctx context.Context) {
	if err := p.storage.Delete(ctx, UserKey, ExpiryKey); err != nil {
		p.logger.WarnContext(ctx, "failed to clear session snapshot",
			logger.Component("session"),
			logger.Error(err),
		)
	}
}
