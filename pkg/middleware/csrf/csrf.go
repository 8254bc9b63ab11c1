package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "XSRF-TOKEN"
	HeaderName = "X-CSRF-Token"
)

type Config struct {
	// SessionCookie is the cookie that carries ambient credentials. Unsafe
	// requests without it (anonymous or bearer-authenticated) are not
	// checked.
	SessionCookie string
	Secure        bool
	MaxAge        time.Duration
}

// Middleware implements the double-submit check: a readable XSRF-TOKEN
// cookie is issued on every response and unsafe cookie-authenticated
// requests must echo it in X-CSRF-Token.
func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			token := ""
			if ck, err := req.Cookie(CookieName); err == nil {
				token = ck.Value
			}
			if token == "" {
				var err error
				if token, err = newToken(); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue csrf token")
				}
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					Secure:   cfg.Secure,
					HttpOnly: false,
					MaxAge:   int(cfg.MaxAge.Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
			}

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(HeaderName, token)
				return next(c)
			}

			if _, err := req.Cookie(cfg.SessionCookie); err != nil {
				return next(c)
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(req.Header.Get(HeaderName))) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
			}
			return next(c)
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
