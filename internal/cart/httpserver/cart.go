package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/cart/service"
	"github.com/Skotchmaster/storefront/internal/cart/transport"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/pkg/binding"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "get_cart_error", err)
	}

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	cart, err := h.Svc.List(ctx, who, offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "get_cart_error", err)
	}

	return c.JSON(http.StatusOK, transport.CartResponse{
		Items:     transport.Items(cart.Items),
		Subtotal:  money.Float(cart.Summary.Subtotal),
		LineCount: cart.Summary.Lines,
		ItemCount: cart.Summary.Items,
		Meta:      pagination.NewMeta(page, limit, cart.Summary.Lines),
	})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "add_to_cart_error", err)
	}

	var req transport.AddItemRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	item, err := h.Svc.AddItem(ctx, who, req.ProductID, req.Quantity)
	if err != nil {
		return apperr.HTTPError(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, transport.Item(*item))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "update_cart_item_error", err)
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_cart_item_error", "status", 400, "reason", "id not a uuid")
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.UpdateQuantityRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("update_cart_item_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	// zero means "remove the line"
	if *req.Quantity == 0 {
		if err := h.Svc.RemoveItem(ctx, who, itemID); err != nil {
			return apperr.HTTPError(l, "update_cart_item_error", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	item, err := h.Svc.UpdateQuantity(ctx, who, itemID, *req.Quantity)
	if err != nil {
		return apperr.HTTPError(l, "update_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, transport.Item(*item))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "remove_cart_item_error", err)
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("remove_cart_item_error", "status", 400, "reason", "id not a uuid")
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.RemoveItem(ctx, who, itemID); err != nil {
		return apperr.HTTPError(l, "remove_cart_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "clear_cart_error", err)
	}

	n, err := h.Svc.Clear(ctx, who)
	if err != nil {
		return apperr.HTTPError(l, "clear_cart_error", err)
	}

	l.Info("cart successfully cleared", "removed", n)
	return c.NoContent(http.StatusNoContent)
}
