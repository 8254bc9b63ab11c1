package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/account/service"
	"github.com/Skotchmaster/storefront/internal/account/transport"
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/pkg/binding"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func setSession(c echo.Context, s *service.Session) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, s.Token, "/", s.ExpiresAt))
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req transport.RegisterRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	s, err := h.Svc.Register(ctx, req)
	if err != nil {
		return apperr.HTTPError(l, "register_error", err)
	}

	setSession(c, s)
	return c.JSON(http.StatusCreated, transport.User(s.User))
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req transport.LoginRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	s, err := h.Svc.Login(ctx, req)
	if err != nil {
		return apperr.HTTPError(l, "login_error", err)
	}

	setSession(c, s)
	l.Info("login_success", "user_id", s.User.ID)
	return c.JSON(http.StatusOK, transport.User(s.User))
}

func (h *AccountHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "account.logout")

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.me")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "me_error", err)
	}
	u, err := h.Svc.Me(ctx, who)
	if err != nil {
		return apperr.HTTPError(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, transport.User(*u))
}
