package binding

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type addReq struct {
	Quantity int `json:"quantity"`
}

func (r addReq) Validate() error {
	if r.Quantity < 1 {
		return errors.New("quantity must be >= 1")
	}
	return nil
}

func ctxWithBody(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "ok", body: `{"quantity":2}`},
		{name: "unknown field", body: `{"quantity":2,"price":1}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "trailing", body: `{"quantity":2}{"quantity":3}`, wantErr: true},
		{name: "fails validation", body: `{"quantity":0}`, wantErr: true},
		{name: "wrong type", body: `{"quantity":"2"}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req addReq
			err := JSON(ctxWithBody(tt.body), &req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadBody)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 2, req.Quantity)
		})
	}
}
