package webclient_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmaku-system/webclient"
	"github.com/danmaku-system/webclient/pkg/auth"
	"github.com/danmaku-system/webclient/pkg/auth/authtest"
	"github.com/danmaku-system/webclient/pkg/csrf"
	"github.com/danmaku-system/webclient/pkg/secrets"
	"github.com/danmaku-system/webclient/pkg/session"
)

const password = "correct horse battery"

func newServer(t *testing.T) *authtest.Server {
	t.Helper()
	srv := authtest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(authtest.Account{Username: "alice", Email: "alice@example.com"}, password)
	return srv
}

func testConfig(srv *authtest.Server, dir string) webclient.Config {
	cfg := webclient.DefaultConfig()
	cfg.BaseURL = srv.BaseURL()
	cfg.StorageDir = dir
	return cfg
}

func TestClient_Start(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)

	client, err := webclient.New(ctx, testConfig(srv, t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	require.NoError(t, client.Start(ctx))
	assert.True(t, client.Handshake().Ready())
	assert.True(t, client.Store().CSRFReady())
	assert.False(t, client.Store().IsAuthenticated())
	assert.Equal(t, 1, srv.Hits("csrf/"))
	assert.Equal(t, 1, srv.Hits("user/"))
	assert.NotEmpty(t, srv.LastHeader("user/", "X-Request-ID"))
	assert.Equal(t, "danmaku-webclient/1.0", srv.LastHeader("user/", "User-Agent"))

	// the handshake runs once per client
	require.NoError(t, client.Start(ctx))
	assert.Equal(t, 1, srv.Hits("csrf/"))
}

func TestClient_SessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)
	cfg := testConfig(srv, t.TempDir())

	first, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))

	res := first.Store().Login(ctx, auth.Credentials{Username: "alice", Password: password, RememberMe: true})
	require.True(t, res.Success, res.Error)
	require.NoError(t, first.Close(ctx))

	second, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(ctx) })

	assert.True(t, second.Store().IsAuthenticated(), "snapshot restores before any request")
	require.NoError(t, second.Start(ctx))
	assert.Equal(t, 1, srv.Hits("user/"), "restored session is not re-fetched")

	// persisted cookies still identify the server session
	assert.True(t, second.Store().FetchUser(ctx))
	assert.Equal(t, "alice", second.Store().User().Username)

	require.True(t, second.Store().Logout(ctx).Success)
	assert.Zero(t, srv.Sessions())
}

func TestClient_StartWithoutServer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)
	cfg := testConfig(srv, t.TempDir())
	cfg.StorageDriver = webclient.StorageMemory
	srv.Close()

	client, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	err = client.Start(ctx)
	require.ErrorIs(t, err, csrf.ErrHandshakeFailed)

	state := client.Store().State()
	assert.False(t, state.CSRFReady)
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, auth.PhaseAnonymous, state.Phase)
}

func TestClient_SealedStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)
	dir := t.TempDir()

	sealKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	deviceKey, err := secrets.GenerateKey()
	require.NoError(t, err)

	cfg := testConfig(srv, dir)
	cfg.SealKey = hex.EncodeToString(sealKey)
	cfg.DeviceKey = hex.EncodeToString(deviceKey)

	client, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx))
	require.True(t, client.Store().Login(ctx, auth.Credentials{Username: "alice", Password: password}).Success)
	require.NoError(t, client.Close(ctx))

	raw, err := os.ReadFile(filepath.Join(dir, session.UserKey))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice")

	reopened, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close(ctx) })
	assert.True(t, reopened.Store().IsAuthenticated())

	// another device key cannot open the snapshot and it is discarded
	otherDevice, err := secrets.GenerateKey()
	require.NoError(t, err)
	cfg.DeviceKey = hex.EncodeToString(otherDevice)
	foreign, err := webclient.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = foreign.Close(ctx) })
	assert.False(t, foreign.Store().IsAuthenticated())
}

func TestClient_WithStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)
	storage := session.NewMemoryStorage(0)
	t.Cleanup(func() { _ = storage.Close() })

	client, err := webclient.New(ctx, testConfig(srv, ""), webclient.WithStorage(storage))
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx))
	require.True(t, client.Store().Login(ctx, auth.Credentials{Username: "alice", Password: password}).Success)
	require.NoError(t, client.Close(ctx))

	value, err := storage.Get(ctx, session.UserKey)
	require.NoError(t, err)
	assert.Contains(t, string(value), "alice")
}

type unreachableStorage struct {
	*session.MemoryStorage
}

func (unreachableStorage) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestClient_StartWithUnreachableStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)
	storage := unreachableStorage{session.NewMemoryStorage(0)}
	t.Cleanup(func() { _ = storage.Close() })

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := webclient.New(ctx, testConfig(srv, ""),
		webclient.WithStorage(storage),
		webclient.WithLogger(log),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	require.NoError(t, client.Start(ctx))
	assert.Contains(t, buf.String(), "session storage unavailable")
	assert.Contains(t, buf.String(), "connection refused")
	assert.Equal(t, 1, srv.Hits("user/"), "startup continues against the server")
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newServer(t)

	tests := []struct {
		name   string
		mutate func(*webclient.Config)
		want   error
	}{
		{"relative base url", func(c *webclient.Config) { c.BaseURL = "localhost" }, webclient.ErrInvalidConfig},
		{"unsupported scheme", func(c *webclient.Config) { c.BaseURL = "ftp://example.com" }, webclient.ErrInvalidConfig},
		{"unknown storage", func(c *webclient.Config) { c.StorageDriver = "floppy" }, webclient.ErrUnknownStorageDriver},
		{"half configured sealing", func(c *webclient.Config) { c.SealKey = "00" }, webclient.ErrInvalidConfig},
		{"bad log level", func(c *webclient.Config) { c.Log.Level = "loud" }, webclient.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(srv, t.TempDir())
			tt.mutate(&cfg)
			_, err := webclient.New(ctx, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DANMAKU_BASE_URL", "https://danmaku.example")
	t.Setenv("DANMAKU_STORAGE", "memory")

	cfg, err := webclient.LoadConfig(writeEnvFile(t, "DANMAKU_FETCH_TIMEOUT=2s\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://danmaku.example", cfg.BaseURL)
	assert.Equal(t, webclient.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "/api/accounts/", cfg.AccountsPath)
	assert.Equal(t, "2s", cfg.FetchTimeout.String())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "danmaku:webclient:", cfg.Redis.KeyPrefix)
	assert.Equal(t, time.Minute, cfg.MemoryCleanup)
	assert.Equal(t, 24*time.Hour, cfg.Session.DefaultTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.RememberTTL)
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DANMAKU_FETCH_TIMEOUT") })
	return path
}
