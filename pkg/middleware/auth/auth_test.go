package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func sign(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(secret, uuid.NewString(), role, "", exp)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err != nil {
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		return he.Code, c
	}
	return rec.Code, c
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	m := NewAuthMiddleware(secret, "ADMIN", "SUPER_ADMIN")

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "bearer ok", header: "Bearer " + sign(t, "CUSTOMER", time.Now().Add(time.Minute)), want: http.StatusOK},
		{name: "cookie ok", cookie: sign(t, "CUSTOMER", time.Now().Add(time.Minute)), want: http.StatusOK},
		{name: "expired", header: "Bearer " + sign(t, "CUSTOMER", time.Now().Add(-time.Minute)), want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tt.cookie})
			}
			code, c := run(t, m.RequireAuth, req)
			assert.Equal(t, tt.want, code)
			if tt.want == http.StatusOK {
				assert.NotEmpty(t, c.Get(UserIDKey))
				assert.Equal(t, "CUSTOMER", c.Get(RoleKey))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	m := NewAuthMiddleware(secret, "ADMIN", "SUPER_ADMIN")

	for role, want := range map[string]int{
		"CUSTOMER":    http.StatusForbidden,
		"ADMIN":       http.StatusOK,
		"SUPER_ADMIN": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, role, time.Now().Add(time.Minute)))
		code, _ := run(t, m.RequireAdmin, req)
		assert.Equal(t, want, code, role)
	}
}
