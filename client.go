package webclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/danmaku-system/webclient/pkg/apiclient"
	"github.com/danmaku-system/webclient/pkg/auth"
	"github.com/danmaku-system/webclient/pkg/config"
	"github.com/danmaku-system/webclient/pkg/cookie"
	"github.com/danmaku-system/webclient/pkg/csrf"
	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/redis"
	"github.com/danmaku-system/webclient/pkg/requestid"
	"github.com/danmaku-system/webclient/pkg/secrets"
	"github.com/danmaku-system/webclient/pkg/session"
)

// ServiceName tags every log record of the client
const ServiceName = "danmaku-webclient"

// Client wires the session store to its transport and storage
type Client struct {
	logger      *slog.Logger
	storage     session.Storage
	closer      io.Closer
	jar         *cookie.Jar
	api         *apiclient.Client
	persistence *session.Persistence
	store       *auth.Store
	handshake   *csrf.Handshake
}

// LoadConfig reads .env files (".env" when none are given) and the environment
func LoadConfig(files ...string) (Config, error) {
	if err := config.LoadEnv(files...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// New builds the client. No request is sent until Start.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = logger.NewFromConfig(cfg.Log, ServiceName,
			logger.WithContextExtractors(requestid.LoggerExtractor()),
		)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
	}

	baseURL, err := accountsURL(cfg)
	if err != nil {
		return nil, err
	}

	sealer, err := newSealer(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{logger: log, storage: o.storage}
	if c.storage == nil {
		if c.storage, c.closer, err = openStorage(ctx, cfg); err != nil {
			return nil, err
		}
	}

	c.jar, err = cookie.NewJar(ctx,
		cookie.WithStorage(c.storage),
		cookie.WithLogger(log),
	)
	if err != nil {
		c.closeStorage()
		return nil, errors.Join(ErrStorageInit, err)
	}

	transport := requestid.NewTransport(
		csrf.NewTransport(o.transport, csrf.FromJar(c.jar), log),
	)
	c.api, err = apiclient.New(baseURL,
		apiclient.WithHTTPClient(&http.Client{Jar: c.jar, Transport: transport}),
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithUserAgent(cfg.UserAgent),
		apiclient.WithLogger(log),
	)
	if err != nil {
		c.closeStorage()
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	persistOpts := []session.Option{
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
	}
	if sealer != nil {
		persistOpts = append(persistOpts, session.WithSealer(sealer))
	}
	c.persistence = session.New(c.storage, persistOpts...)

	c.store = auth.New(c.api, c.persistence,
		auth.WithLogger(log),
		auth.WithFetchTimeout(cfg.FetchTimeout),
	)
	c.handshake = csrf.NewHandshake(c.api,
		csrf.WithTimeout(cfg.HandshakeTimeout),
		csrf.WithTokenSource(csrf.FromJar(c.jar)),
		csrf.WithOnReady(func() { c.store.SetCSRFReady(true) }),
		csrf.WithLogger(log),
	)

	attrs := []any{
		logger.Component("webclient"),
		logger.URL(baseURL),
		slog.String("storage", storageName(cfg, o.storage)),
		slog.Bool("sealed", sealer != nil),
	}
	if fs, ok := c.storage.(*session.FileStorage); ok {
		attrs = append(attrs, slog.String("storage_dir", fs.Dir()))
	}
	log.DebugContext(ctx, "client configured", attrs...)
	return c, nil
}

// Start runs the CSRF handshake once, then reconciles the session with the
// server. Reconciliation runs even when the handshake fails; the handshake
// error is returned afterwards and callers may carry on.
func (c *Client) Start(ctx context.Context) error {
	c.checkStorage(ctx)
	hsErr := c.handshake.Bootstrap(ctx)
	authed := c.store.Reconcile(ctx)

	if err := c.jar.Flush(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to persist cookies",
			logger.Component("webclient"),
			logger.Error(err),
		)
	}

	c.logger.InfoContext(ctx, "client started",
		logger.Component("webclient"),
		slog.Bool("authenticated", authed),
		slog.Bool("csrf_ready", c.handshake.Ready()),
	)
	return hsErr
}

// Close persists cookies and releases storage opened by New
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if err := c.jar.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Store returns the session store
func (c *Client) Store() *auth.Store { return c.store }

// API returns the accounts API client shared by the store and the handshake
func (c *Client) API() *apiclient.Client { return c.api }

// Handshake returns the CSRF handshake run by Start
func (c *Client) Handshake() *csrf.Handshake { return c.handshake }

// Jar returns the persisted cookie jar
func (c *Client) Jar() *cookie.Jar { return c.jar }

// Logger returns the logger the client was built with
func (c *Client) Logger() *slog.Logger { return c.logger }

type pinger interface {
	Ping(ctx context.Context) error
}

// checkStorage warns when a remote storage back-end stopped answering.
// The session then falls back to what the server reports.
func (c *Client) checkStorage(ctx context.Context) {
	p, ok := c.storage.(pinger)
	if !ok {
		return
	}
	if err := p.Ping(ctx); err != nil {
		c.logger.WarnContext(ctx, "session storage unavailable",
			logger.Component("webclient"),
			logger.Error(err),
		)
	}
}

func (c *Client) closeStorage() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

func accountsURL(cfg Config) (string, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: base url %q", ErrInvalidConfig, cfg.BaseURL)
	}
	path := cfg.AccountsPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: accounts path %q", ErrInvalidConfig, cfg.AccountsPath)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String(), nil
}

func newSealer(cfg Config) (*secrets.Sealer, error) {
	if cfg.SealKey == "" && cfg.DeviceKey == "" {
		return nil, nil
	}
	sealKey, err := secrets.ParseKey(cfg.SealKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	deviceKey, err := secrets.ParseKey(cfg.DeviceKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	sealer, err := secrets.NewSealer(sealKey, deviceKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return sealer, nil
}

func openStorage(ctx context.Context, cfg Config) (session.Storage, io.Closer, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case StorageMemory:
		s := session.NewMemoryStorage(cfg.MemoryCleanup)
		return s, s, nil
	case StorageFile, "":
		dir, err := cfg.storageDir()
		if err != nil {
			return nil, nil, errors.Join(ErrStorageInit, err)
		}
		s, err := session.NewFileStorage(dir)
		if err != nil {
			return nil, nil, errors.Join(ErrStorageInit, err)
		}
		return s, nil, nil
	case StorageRedis:
		conn, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, errors.Join(ErrStorageInit, err)
		}
		s := redis.NewStorageWithConfig(conn, cfg.Redis)
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, cfg.StorageDriver)
	}
}

func storageName(cfg Config, injected session.Storage) string {
	if injected != nil {
		return "custom"
	}
	if cfg.StorageDriver == "" {
		return StorageFile
	}
	return strings.ToLower(cfg.StorageDriver)
}
