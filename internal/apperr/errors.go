package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")        // 401
	ErrForbidden         = errors.New("forbidden")           // 403
	ErrInvalidRequest    = errors.New("invalid request")     // 400
	ErrInvalidQuantity   = errors.New("invalid quantity")    // 400
	ErrNotFound          = errors.New("not found")           // 404
	ErrUnavailable       = errors.New("product unavailable") // 409
	ErrInsufficientStock = errors.New("insufficient stock")  // 409
	ErrOutOfStock        = errors.New("out of stock")        // 409
	ErrConflict          = errors.New("conflict")            // 409
	ErrOrderFailed       = errors.New("order failed")        // 500
)

// StockError names the product whose requested quantity exceeded stock.
// Kind is ErrOutOfStock or ErrInsufficientStock.
type StockError struct {
	Kind      error
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %q requested %d, available %d", e.Kind, e.Name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return e.Kind }

func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Server-side failures never
// leak their cause.
func Message(err error) string {
	var se *StockError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("%s: %s (available: %d)", se.Kind, se.Name, se.Available)
	case errors.Is(err, ErrOrderFailed):
		return "order could not be placed, please retry"
	case Status(err) >= 500:
		return "internal error"
	default:
		return err.Error()
	}
}

// HTTPError logs err under event and converts it for echo.
func HTTPError(l *slog.Logger, event string, err error) *echo.HTTPError {
	code := Status(err)
	if code >= 500 {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return echo.NewHTTPError(code, Message(err))
}
