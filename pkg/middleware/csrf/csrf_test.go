package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, method string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware(Config{SessionCookie: "session"}))
	e.Any("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(method, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	rec := serve(t, http.MethodGet, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	token := rec.Header().Get(HeaderName)
	require.NotEmpty(t, token)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), CookieName+"="+token)

	withCookies := func(extra func(*http.Request)) func(*http.Request) {
		return func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			r.AddCookie(&http.Cookie{Name: "session", Value: "jwt"})
			if extra != nil {
				extra(r)
			}
		}
	}

	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   int
	}{
		{name: "anonymous post", mutate: nil, want: http.StatusNoContent},
		{name: "session without header", mutate: withCookies(nil), want: http.StatusForbidden},
		{name: "session with wrong header", mutate: withCookies(func(r *http.Request) { r.Header.Set(HeaderName, "nope") }), want: http.StatusForbidden},
		{name: "session with header", mutate: withCookies(func(r *http.Request) { r.Header.Set(HeaderName, token) }), want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, serve(t, http.MethodPost, tt.mutate).Code)
		})
	}
}
