package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin/service"
	"github.com/Skotchmaster/storefront/internal/admin/transport"
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_stats_error", err)
	}

	st, err := h.Svc.Stats(ctx, who)
	if err != nil {
		return apperr.HTTPError(l, "admin_stats_error", err)
	}
	return c.JSON(http.StatusOK, transport.Stats(*st))
}

func (h *AdminHTTP) RecentOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.recent_orders")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_recent_orders_error", err)
	}

	limit := pagination.ParseIntDefault(c.QueryParam("limit"), service.DefaultRecentOrders)
	items, err := h.Svc.RecentOrders(ctx, who, limit)
	if err != nil {
		return apperr.HTTPError(l, "admin_recent_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.Orders(items))
}

func (h *AdminHTTP) LowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.low_stock")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_low_stock_error", err)
	}

	threshold := pagination.ParseIntDefault(c.QueryParam("threshold"), -1)
	items, err := h.Svc.LowStock(ctx, who, threshold)
	if err != nil {
		return apperr.HTTPError(l, "admin_low_stock_error", err)
	}
	return c.JSON(http.StatusOK, transport.LowStock(items))
}

func (h *AdminHTTP) Customers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.customers")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_customers_error", err)
	}

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.Customers(ctx, who, c.QueryParam("search"), offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "admin_customers_error", err)
	}

	return c.JSON(http.StatusOK, pagination.Page[transport.CustomerResponse]{
		Data: transport.Customers(items),
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *AdminHTTP) Customer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.customer")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_customer_error", err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("admin_customer_error", "status", 400, "reason", "id not a uuid")
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	d, err := h.Svc.Customer(ctx, who, id)
	if err != nil {
		return apperr.HTTPError(l, "admin_customer_error", err)
	}
	return c.JSON(http.StatusOK, transport.CustomerDetail(*d))
}
