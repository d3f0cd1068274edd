package csrf_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmaku-system/webclient/pkg/apiclient"
	"github.com/danmaku-system/webclient/pkg/csrf"
)

func TestIsMutating(t *testing.T) {
	t.Parallel()

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.True(t, csrf.IsMutating(m), m)
	}
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, "post"} {
		assert.False(t, csrf.IsMutating(m), m)
	}
}

func TestTransport(t *testing.T) {
	t.Parallel()

	headers := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/accounts/csrf/" {
			http.SetCookie(w, &http.Cookie{Name: csrf.CookieName, Value: "tok-42", Path: "/"})
			return
		}
		headers <- r.Header.Get(csrf.HeaderName)
	}))
	defer srv.Close()

	send := func(t *testing.T, c *apiclient.Client, method string) string {
		t.Helper()
		_, err := c.Do(context.Background(), method, "update/", nil)
		require.NoError(t, err)
		return <-headers
	}

	t.Run("mutating requests carry the token", func(t *testing.T) {
		c, _ := newClient(t, srv.URL+"/api/accounts/")
		_, err := c.Do(context.Background(), http.MethodGet, "csrf/", nil)
		require.NoError(t, err)

		for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			assert.Equal(t, "tok-42", send(t, c, m), m)
		}
		assert.Empty(t, send(t, c, http.MethodGet))
	})

	t.Run("missing token fails open", func(t *testing.T) {
		c, _ := newClient(t, srv.URL+"/api/accounts/")
		assert.Empty(t, send(t, c, http.MethodPost))
	})
}

func TestFromJar(t *testing.T) {
	t.Parallel()
	_, jar := newClient(t, "http://example.com/")
	u, _ := url.Parse("http://example.com/api/accounts/login/")

	_, err := csrf.FromJar(jar)(u)
	assert.ErrorIs(t, err, csrf.ErrTokenNotFound)

	jar.SetCookies(u, []*http.Cookie{{Name: csrf.CookieName, Value: "abc", Path: "/"}})
	token, err := csrf.FromJar(jar)(u)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
