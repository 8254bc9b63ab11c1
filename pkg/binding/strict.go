package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Validator is implemented by request DTOs that check their own fields.
type Validator interface {
	Validate() error
}

var ErrBadBody = errors.New("invalid body")

// JSON decodes the request body into dst, rejecting unknown fields and
// trailing data, then runs dst.Validate when dst implements Validator.
func JSON(c echo.Context, dst any) error {
	body := c.Request().Body
	if body == nil {
		return fmt.Errorf("%w: empty body", ErrBadBody)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadBody)
		}
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrBadBody)
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadBody, err)
		}
	}
	return nil
}

// HTTPError turns a JSON error into a 400 that names the problem.
func HTTPError(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
