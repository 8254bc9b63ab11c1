package notify

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/binding"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const InternalTokenHeader = "X-Internal-Token"

type OrderConfirmationRequest struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Total         float64   `json:"total"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
}

func (r *OrderConfirmationRequest) Validate() error {
	if r.OrderID == uuid.Nil || strings.TrimSpace(r.OrderNumber) == "" {
		return errors.New("order_id and order_number required")
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return errors.New("customer_email required")
	}
	if strings.ContainsAny(r.OrderNumber+r.CustomerEmail+r.CustomerName, "\r\n") {
		return errors.New("line breaks not allowed")
	}
	if r.Total < 0 {
		return errors.New("total cannot be negative")
	}
	return nil
}

// NotifyHTTP serves the internal endpoint that sends both order emails
// synchronously. It is not reachable without the shared token.
type NotifyHTTP struct {
	Notifier *Notifier
	Token    string
}

func (h *NotifyHTTP) authorized(c echo.Context) bool {
	if h.Token == "" {
		return false
	}
	got := c.Request().Header.Get(InternalTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) == 1
}

func (h *NotifyHTTP) OrderConfirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notify.order_confirmation")

	if !h.authorized(c) {
		l.Warn("order_confirmation_error", "status", 401, "reason", "bad internal token")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req OrderConfirmationRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("order_confirmation_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	res := h.Notifier.SendOrderNotifications(ctx, OrderConfirmation{
		OrderID:       req.OrderID,
		OrderNumber:   req.OrderNumber,
		Total:         req.Total,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if res.CustomerErr != nil {
		l.Warn("customer_confirmation_failed", "order_number", req.OrderNumber, "error", res.CustomerErr)
	}
	if res.StaffErr != nil {
		l.Warn("staff_notification_failed", "order_number", req.OrderNumber, "error", res.StaffErr)
	}
	return c.JSON(http.StatusOK, res)
}
