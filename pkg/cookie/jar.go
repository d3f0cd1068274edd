package cookie

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/session"
)

// record is the persisted form of one cookie together with the URL that set it
type record struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (r record) expired(now time.Time) bool {
	return !r.Expires.IsZero() && !r.Expires.After(now)
}

// Jar is an http.CookieJar that can survive process restarts.
// Cookies are held in a publicsuffix-aware cookiejar.Jar; with WithStorage
// they are also mirrored to a session.Storage entry by Flush and restored
// by NewJar.
type Jar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	records map[string]record
	dirty   bool

	storage session.Storage
	key     string
	now     func() time.Time
	logger  *slog.Logger
}

// NewJar creates a jar and restores persisted cookies when storage is configured.
// Unreadable persisted state is logged and discarded.
func NewJar(ctx context.Context, opts ...Option) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	j := &Jar{
		jar:     inner,
		records: make(map[string]record),
		key:     StorageKey,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.restore(ctx); err != nil {
		j.logger.WarnContext(ctx, "discarding persisted cookies",
			logger.Component("cookie"),
			logger.Error(err),
		)
		j.dirty = true
	}
	return j, nil
}

// SetCookies implements http.CookieJar
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	origin := originURL(u)
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		rec := record{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			rec.Expires = now
		case c.MaxAge > 0:
			rec.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		id := recordID(u, c)
		if rec.expired(now) {
			delete(j.records, id)
		} else {
			j.records[id] = rec
		}
		j.dirty = true
	}
}

// Cookies implements http.CookieJar
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Flush writes the cookies to storage if they changed since the last flush.
func (j *Jar) Flush(ctx context.Context) error {
	if j.storage == nil {
		return nil
	}

	j.mu.Lock()
	if !j.dirty {
		j.mu.Unlock()
		return nil
	}
	now := j.now()
	list := make([]record, 0, len(j.records))
	for id, rec := range j.records {
		if rec.expired(now) {
			delete(j.records, id)
			continue
		}
		list = append(list, rec)
	}
	j.dirty = false
	j.mu.Unlock()

	if len(list) == 0 {
		if err := j.storage.Delete(ctx, j.key); err != nil {
			j.markDirty()
			return errors.Join(ErrPersistFailed, err)
		}
		return nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return errors.Join(ErrPersistFailed, err)
	}
	if err := j.storage.Set(ctx, j.key, data, 0); err != nil {
		j.markDirty()
		return errors.Join(ErrPersistFailed, err)
	}
	return nil
}

func (j *Jar) markDirty() {
	j.mu.Lock()
	j.dirty = true
	j.mu.Unlock()
}

func (j *Jar) restore(ctx context.Context) error {
	if j.storage == nil {
		return nil
	}

	data, err := j.storage.Get(ctx, j.key)
	if err != nil || data == nil {
		return err
	}

	var list []record
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Join(ErrInvalidFormat, err)
	}

	now := j.now()
	for _, rec := range list {
		if rec.expired(now) {
			j.dirty = true
			continue
		}
		u, err := url.Parse(rec.URL)
		if err != nil || u.Host == "" {
			j.dirty = true
			continue
		}
		c := &http.Cookie{
			Name:     rec.Name,
			Value:    rec.Value,
			Path:     rec.Path,
			Domain:   rec.Domain,
			Expires:  rec.Expires,
			Secure:   rec.Secure,
			HttpOnly: rec.HttpOnly,
		}
		j.jar.SetCookies(u, []*http.Cookie{c})
		j.records[recordID(u, c)] = rec
	}
	return nil
}

// Value returns the value of the named cookie the jar would send to u.
func Value(jar http.CookieJar, u *url.URL, name string) (string, error) {
	if jar == nil || u == nil {
		return "", ErrCookieNotFound
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value, nil
		}
	}
	return "", ErrCookieNotFound
}

func originURL(u *url.URL) string {
	o := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return o.String()
}

func recordID(u *url.URL, c *http.Cookie) string {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	return domain + ";" + c.Path + ";" + c.Name
}
