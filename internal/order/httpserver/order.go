package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/order/repo"
	"github.com/Skotchmaster/storefront/internal/order/service"
	"github.com/Skotchmaster/storefront/internal/order/transport"
	"github.com/Skotchmaster/storefront/pkg/binding"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func filterFrom(c echo.Context) repo.Filter {
	return repo.Filter{
		Status: models.OrderStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))),
		Search: c.QueryParam("search"),
	}
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "order_create_error", err)
	}

	var req transport.PlaceOrderRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("order_create_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	o, err := h.Svc.PlaceOrder(ctx, who, req)
	if err != nil {
		return apperr.HTTPError(l, "order_create_error", err)
	}

	l.Info("order_create_success", "order_id", o.ID, "order_number", o.OrderNumber)
	return c.JSON(http.StatusCreated, transport.Order(*o))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "order_list_error", err)
	}

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, who, filterFrom(c), offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "order_list_error", err)
	}

	return c.JSON(http.StatusOK, pagination.Page[transport.OrderResponse]{
		Data: transport.Orders(items),
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "order_get_error", err)
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("order_get_error", "status", 400, "reason", "id not a uuid")
		return err
	}

	o, err := h.Svc.Get(ctx, who, id)
	if err != nil {
		return apperr.HTTPError(l, "order_get_error", err)
	}
	return c.JSON(http.StatusOK, transport.Order(*o))
}

func (h *OrderHTTP) AdminListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_list")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "admin_order_list_error", err)
	}

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.ListAll(ctx, who, filterFrom(c), offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "admin_order_list_error", err)
	}

	return c.JSON(http.StatusOK, pagination.Page[transport.OrderResponse]{
		Data: transport.Orders(items),
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "order_status_error", err)
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("order_status_error", "status", 400, "reason", "id not a uuid")
		return err
	}

	var req transport.UpdateStatusRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	o, err := h.Svc.UpdateStatus(ctx, who, id, req.Status)
	if err != nil {
		return apperr.HTTPError(l, "order_status_error", err)
	}

	l.Info("order_status_success", "order_id", o.ID, "status", o.Status)
	return c.JSON(http.StatusOK, transport.Order(*o))
}
