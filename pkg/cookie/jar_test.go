package cookie_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmaku-system/webclient/pkg/cookie"
	"github.com/danmaku-system/webclient/pkg/session"
)

func cookieServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/accounts/csrf/":
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-1", Path: "/", MaxAge: 3600})
		case "/api/accounts/login/":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-1", Path: "/", HttpOnly: true})
		case "/api/accounts/logout/":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, c *http.Client, u string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func TestJar_PersistAndRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := cookieServer(t)
	storage := session.NewMemoryStorage(0)

	jar, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	get(t, client, srv.URL+"/api/accounts/csrf/")
	get(t, client, srv.URL+"/api/accounts/login/")
	require.NoError(t, jar.Flush(ctx))

	raw, err := storage.Get(ctx, cookie.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sess-1")

	restored, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
	require.NoError(t, err)

	u, _ := url.Parse(srv.URL + "/api/accounts/user/")
	token, err := cookie.Value(restored, u, "csrftoken")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	sid, err := cookie.Value(restored, u, "sessionid")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sid)
}

func TestJar_DeletedCookieIsNotPersisted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := cookieServer(t)
	storage := session.NewMemoryStorage(0)

	jar, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	get(t, client, srv.URL+"/api/accounts/login/")
	get(t, client, srv.URL+"/api/accounts/logout/")
	require.NoError(t, jar.Flush(ctx))

	raw, err := storage.Get(ctx, cookie.StorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw)

	u, _ := url.Parse(srv.URL)
	_, err = cookie.Value(jar, u, "sessionid")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestJar_ExpiredRecordsAreSkipped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := cookieServer(t)
	storage := session.NewMemoryStorage(0)

	jar, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
	require.NoError(t, err)
	get(t, &http.Client{Jar: jar}, srv.URL+"/api/accounts/csrf/")
	require.NoError(t, jar.Flush(ctx))

	later := time.Now().Add(2 * time.Hour)
	restored, err := cookie.NewJar(ctx,
		cookie.WithStorage(storage),
		cookie.WithClock(func() time.Time { return later }),
	)
	require.NoError(t, err)

	u, _ := url.Parse(srv.URL)
	_, err = cookie.Value(restored, u, "csrftoken")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestJar_CorruptStateIsDiscarded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := session.NewMemoryStorage(0)
	require.NoError(t, storage.Set(ctx, cookie.StorageKey, []byte("not json"), 0))

	jar, err := cookie.NewJar(ctx, cookie.WithStorage(storage))
	require.NoError(t, err)
	require.NoError(t, jar.Flush(ctx))

	raw, err := storage.Get(ctx, cookie.StorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

type failingStorage struct{ session.Storage }

func (failingStorage) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestJar_FlushFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := cookieServer(t)

	jar, err := cookie.NewJar(ctx, cookie.WithStorage(failingStorage{session.NewMemoryStorage(0)}))
	require.NoError(t, err)
	get(t, &http.Client{Jar: jar}, srv.URL+"/api/accounts/csrf/")

	assert.ErrorIs(t, jar.Flush(ctx), cookie.ErrPersistFailed)
	assert.ErrorIs(t, jar.Flush(ctx), cookie.ErrPersistFailed, "failed flush keeps the jar dirty")
}

func TestValue(t *testing.T) {
	t.Parallel()

	u, _ := url.Parse("http://example.com/")
	_, err := cookie.Value(nil, u, "csrftoken")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

	jar, err := cookie.NewJar(context.Background())
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "abc"}})

	v, err := cookie.Value(jar, u, "csrftoken")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.NoError(t, jar.Flush(context.Background()))
}
